package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
)

// VoteRepo implements domain.VoteRepository backed by PostgreSQL.
type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Toggle runs the three-state vote transition as one transaction. The FOR
// UPDATE on the vote row serializes concurrent toggles by the same user;
// the post counters move via atomic increments, never a read-modify-write
// of a cached score.
func (r *VoteRepo) Toggle(ctx context.Context, postID, userID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the post first so the counter update below cannot race a delete,
	// and so unknown posts fail cleanly before any vote row is touched.
	var deleted bool
	err = tx.QueryRow(ctx, `SELECT deleted FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}
	if deleted {
		return nil, domain.ErrPostNotFound
	}

	var current *domain.VoteType
	var existing domain.VoteType
	err = tx.QueryRow(ctx, `
		SELECT vote_type FROM votes WHERE post_id = $1 AND user_id = $2 FOR UPDATE
	`, postID, userID).Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read existing vote: %w", err)
	default:
		current = &existing
	}

	change := engage.VoteTransition(current, voteType)

	var vote *domain.Vote
	switch change.Action {
	case engage.VoteCreated:
		vote = &domain.Vote{PostID: postID, UserID: userID, VoteType: voteType}
		err = tx.QueryRow(ctx, `
			INSERT INTO votes (post_id, user_id, vote_type)
			VALUES ($1, $2, $3)
			RETURNING created_at, updated_at
		`, postID, userID, voteType).Scan(&vote.CreatedAt, &vote.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert vote: %w", err)
		}
	case engage.VoteSwitched:
		vote = &domain.Vote{PostID: postID, UserID: userID, VoteType: voteType}
		err = tx.QueryRow(ctx, `
			UPDATE votes SET vote_type = $3, updated_at = NOW()
			WHERE post_id = $1 AND user_id = $2
			RETURNING created_at, updated_at
		`, postID, userID, voteType).Scan(&vote.CreatedAt, &vote.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to switch vote: %w", err)
		}
	case engage.VoteCancelled:
		if _, err := tx.Exec(ctx, `
			DELETE FROM votes WHERE post_id = $1 AND user_id = $2
		`, postID, userID); err != nil {
			return nil, fmt.Errorf("failed to delete vote: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE posts
		SET vote_score = vote_score + $2,
		    upvote_count = upvote_count + $3,
		    downvote_count = downvote_count + $4,
		    updated_at = NOW()
		WHERE id = $1
	`, postID, change.ScoreDelta, change.UpDelta, change.DownDelta); err != nil {
		return nil, fmt.Errorf("failed to update post counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &domain.VoteResult{Vote: vote}, nil
}
