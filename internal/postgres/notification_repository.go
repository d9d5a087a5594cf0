package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

// NotificationRepo implements domain.NotificationRepository backed by PostgreSQL.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, recipientID, actorID, postID uuid.UUID, typ domain.NotificationType) (*domain.Notification, error) {
	n := &domain.Notification{UserID: recipientID, ActorID: actorID, PostID: postID, Type: typ}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, actor_id, post_id, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at
	`, recipientID, actorID, postID, typ).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) List(ctx context.Context, userID uuid.UUID, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, actor_id, post_id, type, read, created_at
		FROM notifications
		WHERE user_id = $1`
	if filter.UnreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ActorID, &n.PostID, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification rows: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent: already-read IDs simply do not count toward the
// returned total.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (int, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE user_id = $1 AND id = ANY($2) AND read = FALSE
	`, userID, notificationIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
