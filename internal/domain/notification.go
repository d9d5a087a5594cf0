package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationReply    NotificationType = "reply"
	NotificationReaction NotificationType = "reaction"
	NotificationQuote    NotificationType = "quote"
)

// Notification records that an actor performed an event against the
// recipient's post. Never created for self-actions; mutated only by
// read-state transitions, never deleted.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID // recipient
	ActorID   uuid.UUID
	PostID    uuid.UUID
	Type      NotificationType
	Read      bool
	CreatedAt time.Time
}

// NotificationFilter narrows the recipient's notification listing.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

type NotificationRepository interface {
	Create(ctx context.Context, recipientID, actorID, postID uuid.UUID, typ NotificationType) (*Notification, error)

	// List returns the recipient's notifications, most recent first.
	List(ctx context.Context, userID uuid.UUID, filter NotificationFilter) ([]*Notification, error)

	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead marks the given notifications read for the user and returns
	// how many rows actually changed. Already-read IDs are a no-op.
	MarkRead(ctx context.Context, userID uuid.UUID, notificationIDs []uuid.UUID) (int, error)

	// MarkAllRead marks every unread notification read and returns the count.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}
