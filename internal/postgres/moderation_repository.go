package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/engage"
)

// flagColumns must match the Scan order in scanFlag.
const flagColumns = `id, post_id, reporter_id, reason, description, status, reviewer_id, reviewed_at, created_at, updated_at`

// ModerationRepo implements domain.ModerationRepository backed by PostgreSQL.
type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

func scanFlag(row pgx.Row) (*domain.ModerationFlag, error) {
	var f domain.ModerationFlag
	err := row.Scan(
		&f.ID, &f.PostID, &f.ReporterID, &f.Reason, &f.Description,
		&f.Status, &f.ReviewerID, &f.ReviewedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertFlag records a report against a post. A repeat report by the same
// reporter updates the existing flag instead of duplicating; a re-report of
// a previously dismissed flag reopens it to pending. The post's status and
// flag_count move in the same transaction.
func (r *ModerationRepo) UpsertFlag(ctx context.Context, postID, reporterID uuid.UUID, reason domain.FlagReason, description *string) (*domain.ModerationFlag, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var status domain.ModerationStatus
	var deleted bool
	err = tx.QueryRow(ctx, `
		SELECT moderation_status, deleted FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&status, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}
	if deleted {
		return nil, domain.ErrPostDeleted
	}

	var existingStatus domain.FlagStatus
	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id, status FROM moderation_flags
		WHERE post_id = $1 AND reporter_id = $2
	`, postID, reporterID).Scan(&existingID, &existingStatus)

	var flag *domain.ModerationFlag
	countDelta := 0

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		flag, err = scanFlag(tx.QueryRow(ctx, `
			INSERT INTO moderation_flags (post_id, reporter_id, reason, description)
			VALUES ($1, $2, $3, $4)
			RETURNING `+flagColumns+`
		`, postID, reporterID, reason, description))
		if err != nil {
			return nil, fmt.Errorf("failed to insert flag: %w", err)
		}
		countDelta = 1
	case err != nil:
		return nil, fmt.Errorf("failed to read existing flag: %w", err)
	default:
		// Dismissed flags reopen; actioned ones stay actioned but pick up
		// the new reason.
		if existingStatus == domain.FlagDismissed {
			countDelta = 1
		}
		flag, err = scanFlag(tx.QueryRow(ctx, `
			UPDATE moderation_flags
			SET reason = $2, description = $3,
			    status = CASE WHEN status = 'dismissed' THEN 'pending' ELSE status END,
			    reviewer_id = CASE WHEN status = 'dismissed' THEN NULL ELSE reviewer_id END,
			    reviewed_at = CASE WHEN status = 'dismissed' THEN NULL ELSE reviewed_at END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+flagColumns+`
		`, existingID, reason, description))
		if err != nil {
			return nil, fmt.Errorf("failed to update flag: %w", err)
		}
	}

	nextStatus := engage.StatusAfterFlag(status)
	if _, err := tx.Exec(ctx, `
		UPDATE posts
		SET flag_count = flag_count + $2, moderation_status = $3, updated_at = NOW()
		WHERE id = $1
	`, postID, countDelta, nextStatus); err != nil {
		return nil, fmt.Errorf("failed to update post flag state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return flag, nil
}

func (r *ModerationRepo) GetFlag(ctx context.Context, flagID uuid.UUID) (*domain.ModerationFlag, error) {
	flag, err := scanFlag(r.pool.QueryRow(ctx, `
		SELECT `+flagColumns+` FROM moderation_flags WHERE id = $1
	`, flagID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flag: %w", err)
	}
	return flag, nil
}

func (r *ModerationRepo) ListFlags(ctx context.Context, filter domain.FlagFilter) ([]*domain.ModerationFlag, error) {
	query := `SELECT ` + flagColumns + ` FROM moderation_flags`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	var flags []*domain.ModerationFlag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flag rows: %w", err)
	}
	return flags, nil
}

// ReviewFlag applies a reviewer's decision. The flag reaches its terminal
// status and, for hide/remove, the post's visibility changes in the same
// transaction. Reviewing an already-terminal flag is a conflict.
func (r *ModerationRepo) ReviewFlag(ctx context.Context, flagID uuid.UUID, action domain.ModerationAction, reviewerID uuid.UUID) (*domain.ModerationFlag, error) {
	outcome, err := engage.FlagOutcome(action)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var postID uuid.UUID
	var flagStatus domain.FlagStatus
	err = tx.QueryRow(ctx, `
		SELECT post_id, status FROM moderation_flags WHERE id = $1 FOR UPDATE
	`, flagID).Scan(&postID, &flagStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock flag: %w", err)
	}

	if err := engage.CanReview(flagStatus); err != nil {
		return nil, err
	}

	var postStatus domain.ModerationStatus
	err = tx.QueryRow(ctx, `
		SELECT moderation_status FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&postStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}

	flag, err := scanFlag(tx.QueryRow(ctx, `
		UPDATE moderation_flags
		SET status = $2, reviewer_id = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING `+flagColumns+`
	`, flagID, outcome, reviewerID))
	if err != nil {
		return nil, fmt.Errorf("failed to update flag: %w", err)
	}

	switch action {
	case domain.ActionDismiss:
		// flag_count tracks non-dismissed flags.
		var pendingRemaining int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM moderation_flags WHERE post_id = $1 AND status = 'pending'
		`, postID).Scan(&pendingRemaining)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending flags: %w", err)
		}

		nextStatus := engage.CollapseDismissed(postStatus, pendingRemaining)
		if _, err := tx.Exec(ctx, `
			UPDATE posts
			SET flag_count = flag_count - 1, moderation_status = $2, updated_at = NOW()
			WHERE id = $1
		`, postID, nextStatus); err != nil {
			return nil, fmt.Errorf("failed to update post after dismissal: %w", err)
		}
	case domain.ActionHide, domain.ActionRemove:
		nextStatus, err := engage.NextPostStatus(postStatus, action)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE posts
			SET moderation_status = $2, moderated_at = NOW(), moderated_by = $3, updated_at = NOW()
			WHERE id = $1
		`, postID, nextStatus, reviewerID); err != nil {
			return nil, fmt.Errorf("failed to update post visibility: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return flag, nil
}

// RestorePost returns a hidden or removed post to clean and clears the
// moderation stamps. Flag records stay untouched as an audit trail.
func (r *ModerationRepo) RestorePost(ctx context.Context, postID, reviewerID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var status domain.ModerationStatus
	err = tx.QueryRow(ctx, `
		SELECT moderation_status FROM posts WHERE id = $1 FOR UPDATE
	`, postID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock post: %w", err)
	}

	nextStatus, err := engage.NextPostStatus(status, domain.ActionRestore)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE posts
		SET moderation_status = $2, moderated_at = NULL, moderated_by = NULL, updated_at = NOW()
		WHERE id = $1
	`, postID, nextStatus); err != nil {
		return fmt.Errorf("failed to restore post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Post restored", "post_id", postID.String(), "reviewer_id", reviewerID.String())
	return nil
}
