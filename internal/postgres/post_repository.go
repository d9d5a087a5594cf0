package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

// postColumns must match the Scan order in scanPost.
const postColumns = `id, author_id, parent_id, quoted_post_id, quoted_content_snapshot,
	content, media_ref, deleted, edited_at,
	reply_count, vote_score, upvote_count, downvote_count, reaction_count, flag_count,
	moderation_status, moderated_at, moderated_by, created_at, updated_at`

// qualifiedPostColumns prefixes every post column with a table alias for use
// in joins.
func qualifiedPostColumns(alias string) string {
	cols := strings.Split(postColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

// PostRepo implements domain.PostRepository backed by PostgreSQL.
type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.ParentID, &p.QuotedPostID, &p.QuotedContentSnapshot,
		&p.Content, &p.MediaRef, &p.Deleted, &p.EditedAt,
		&p.ReplyCount, &p.VoteScore, &p.UpvoteCount, &p.DownvoteCount, &p.ReactionCount, &p.FlagCount,
		&p.ModerationStatus, &p.ModeratedAt, &p.ModeratedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, params domain.CreatePostParams) (*domain.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Replies must reference an existing, non-deleted ancestor. The FOR
	// UPDATE pins the parent so its reply_count increment and the insert
	// commit together.
	if params.ParentID != nil {
		var deleted bool
		err := tx.QueryRow(ctx, `SELECT deleted FROM posts WHERE id = $1 FOR UPDATE`, *params.ParentID).Scan(&deleted)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock parent post: %w", err)
		}
		if deleted {
			return nil, domain.ErrPostDeleted
		}
	}

	// Quotes snapshot the quoted content at creation time; the snapshot
	// never changes afterwards.
	var snapshot *string
	if params.QuotedPostID != nil {
		var content string
		err := tx.QueryRow(ctx, `SELECT content FROM posts WHERE id = $1`, *params.QuotedPostID).Scan(&content)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read quoted post: %w", err)
		}
		snapshot = &content
	}

	post, err := scanPost(tx.QueryRow(ctx, `
		INSERT INTO posts (author_id, parent_id, quoted_post_id, quoted_content_snapshot, content, media_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+postColumns+`
	`, params.AuthorID, params.ParentID, params.QuotedPostID, snapshot, params.Content, params.MediaRef))
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	if params.ParentID != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET reply_count = reply_count + 1, updated_at = NOW() WHERE id = $1
		`, *params.ParentID); err != nil {
			return nil, fmt.Errorf("failed to increment reply count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return post, nil
}

func (r *PostRepo) GetByID(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post by ID: %w", err)
	}
	return post, nil
}

func (r *PostRepo) Edit(ctx context.Context, postID, authorID uuid.UUID, content string) (*domain.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, `
		UPDATE posts
		SET content = $1, edited_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND author_id = $3 AND deleted = FALSE
		RETURNING `+postColumns+`
	`, content, postID, authorID))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing or deleted post from someone else's post.
		existing, getErr := r.GetByID(ctx, postID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Deleted {
			return nil, domain.ErrPostDeleted
		}
		return nil, domain.ErrNotPostAuthor
	}
	if err != nil {
		return nil, fmt.Errorf("failed to edit post: %w", err)
	}
	return post, nil
}

func (r *PostRepo) SoftDelete(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var authorID uuid.UUID
	var parentID *uuid.UUID
	var deleted bool
	err = tx.QueryRow(ctx, `
		SELECT author_id, parent_id, deleted FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&authorID, &parentID, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock post: %w", err)
	}

	if deleted {
		return domain.ErrPostDeleted
	}
	if !asModerator && authorID != callerID {
		return domain.ErrNotPostAuthor
	}

	if _, err := tx.Exec(ctx, `
		UPDATE posts SET deleted = TRUE, updated_at = NOW() WHERE id = $1
	`, postID); err != nil {
		return fmt.Errorf("failed to soft-delete post: %w", err)
	}

	if parentID != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE posts SET reply_count = reply_count - 1, updated_at = NOW() WHERE id = $1
		`, *parentID); err != nil {
			return fmt.Errorf("failed to decrement reply count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostRepo) GetThread(ctx context.Context, postID uuid.UUID) (*domain.Post, []*domain.Post, error) {
	root, err := r.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE thread AS (
			SELECT `+postColumns+` FROM posts WHERE parent_id = $1 AND deleted = FALSE
			UNION ALL
			SELECT `+qualifiedPostColumns("p")+`
			FROM posts p
			JOIN thread t ON p.parent_id = t.id
			WHERE p.deleted = FALSE
		)
		SELECT * FROM thread ORDER BY created_at ASC, id ASC
	`, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query thread: %w", err)
	}
	defer rows.Close()

	var replies []*domain.Post
	for rows.Next() {
		reply, err := scanPost(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read thread rows: %w", err)
	}

	return root, replies, nil
}
