package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
)

// feedVisible filters the root feed: top-level, not deleted, not moderated
// out of sight. Visibility is a query-time filter on moderation_status;
// hiding a post needs no re-index step.
const feedVisible = `parent_id IS NULL AND deleted = FALSE AND moderation_status NOT IN ('hidden', 'removed')`

// hotScoreExpr mirrors engage.Ranker.HotScore: score / (age_hours + 2)^gravity.
// $1 is the ranking reference instant, $2 the gravity. Computing it in SQL
// keeps cursor comparisons byte-identical to the ordering expression.
const hotScoreExpr = `vote_score::double precision / POWER(GREATEST(EXTRACT(EPOCH FROM ($1::timestamptz - created_at)) / 3600.0, 0) + 2, $2)`

// FeedRepo implements domain.FeedRepository backed by PostgreSQL.
type FeedRepo struct {
	pool   *pgxpool.Pool
	ranker *engage.Ranker
}

func NewFeedRepo(pool *pgxpool.Pool, ranker *engage.Ranker) *FeedRepo {
	return &FeedRepo{pool: pool, ranker: ranker}
}

func (r *FeedRepo) ListPage(ctx context.Context, q domain.FeedQuery) (*domain.FeedPage, error) {
	switch q.Sort {
	case domain.SortChronological:
		return r.listChronological(ctx, q)
	case domain.SortHot:
		return r.listHot(ctx, q)
	default:
		return nil, fmt.Errorf("unsupported feed sort: %q", q.Sort)
	}
}

func (r *FeedRepo) listChronological(ctx context.Context, q domain.FeedQuery) (*domain.FeedPage, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + feedVisible
	args := []any{}

	if q.HasCursor {
		query += ` AND (created_at, id) < ($1, $2)`
		args = append(args, q.AfterCreatedAt, q.AfterID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chronological feed: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed post: %w", err)
		}
		items = append(items, domain.FeedItem{Post: post})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed rows: %w", err)
	}

	return trimPage(items, q.Limit), nil
}

func (r *FeedRepo) listHot(ctx context.Context, q domain.FeedQuery) (*domain.FeedPage, error) {
	query := `SELECT ` + postColumns + `, ` + hotScoreExpr + ` AS hot_score
		FROM posts WHERE ` + feedVisible
	args := []any{q.RankedAt, r.ranker.Gravity()}

	if q.HasCursor {
		query += ` AND (` + hotScoreExpr + ` < $3 OR (` + hotScoreExpr + ` = $3 AND id < $4))`
		args = append(args, q.AfterHotScore, q.AfterID)
	}
	query += fmt.Sprintf(` ORDER BY hot_score DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hot feed: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		var p domain.Post
		var hotScore float64
		err := rows.Scan(
			&p.ID, &p.AuthorID, &p.ParentID, &p.QuotedPostID, &p.QuotedContentSnapshot,
			&p.Content, &p.MediaRef, &p.Deleted, &p.EditedAt,
			&p.ReplyCount, &p.VoteScore, &p.UpvoteCount, &p.DownvoteCount, &p.ReactionCount, &p.FlagCount,
			&p.ModerationStatus, &p.ModeratedAt, &p.ModeratedBy, &p.CreatedAt, &p.UpdatedAt,
			&hotScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hot feed post: %w", err)
		}
		items = append(items, domain.FeedItem{Post: &p, HotScore: hotScore})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hot feed rows: %w", err)
	}

	return trimPage(items, q.Limit), nil
}

// trimPage converts the limit+1 overfetch into a page plus a has-more flag.
func trimPage(items []domain.FeedItem, limit int) *domain.FeedPage {
	page := &domain.FeedPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
	}
	return page
}
