package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

// ReactionRepo implements domain.ReactionRepository backed by PostgreSQL.
type ReactionRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRepo(pool *pgxpool.Pool) *ReactionRepo {
	return &ReactionRepo{pool: pool}
}

// Toggle creates or removes one (post, user, emoji) reaction and adjusts the
// post's reaction_count in the same transaction. Each emoji toggles
// independently of the user's other reactions on the post.
func (r *ReactionRepo) Toggle(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*domain.ReactionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the post first so the counter update below cannot race a delete,
	// and so unknown posts fail cleanly before any reaction row is touched.
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

	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM reactions
		WHERE post_id = $1 AND user_id = $2 AND emoji_code = $3
		FOR UPDATE
	`, postID, userID, emojiCode).Scan(&existingID)

	var result *domain.ReactionResult
	var countDelta int

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		reaction := &domain.Reaction{PostID: postID, UserID: userID, EmojiCode: emojiCode}
		err = tx.QueryRow(ctx, `
			INSERT INTO reactions (post_id, user_id, emoji_code)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, postID, userID, emojiCode).Scan(&reaction.ID, &reaction.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert reaction: %w", err)
		}
		result = &domain.ReactionResult{Reaction: reaction, Added: true}
		countDelta = 1
	case err != nil:
		return nil, fmt.Errorf("failed to read existing reaction: %w", err)
	default:
		if _, err := tx.Exec(ctx, `DELETE FROM reactions WHERE id = $1`, existingID); err != nil {
			return nil, fmt.Errorf("failed to delete reaction: %w", err)
		}
		result = &domain.ReactionResult{Added: false}
		countDelta = -1
	}

	if _, err := tx.Exec(ctx, `
		UPDATE posts
		SET reaction_count = reaction_count + $2, updated_at = NOW()
		WHERE id = $1
	`, postID, countDelta); err != nil {
		return nil, fmt.Errorf("failed to update reaction count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

func (r *ReactionRepo) CountsForPost(ctx context.Context, postID uuid.UUID) ([]domain.ReactionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT emoji_code, COUNT(*) FROM reactions
		WHERE post_id = $1
		GROUP BY emoji_code
		ORDER BY COUNT(*) DESC, emoji_code ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reaction counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.ReactionCount
	for rows.Next() {
		var c domain.ReactionCount
		if err := rows.Scan(&c.EmojiCode, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan reaction count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reaction count rows: %w", err)
	}
	return counts, nil
}
