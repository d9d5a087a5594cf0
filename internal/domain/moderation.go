package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FlagReason string

const (
	ReasonSpam       FlagReason = "spam"
	ReasonHarassment FlagReason = "harassment"
	ReasonOffTopic   FlagReason = "off_topic"
	ReasonNSFW       FlagReason = "nsfw"
	ReasonOther      FlagReason = "other"
)

// Valid reports whether the reason is one of the accepted enum values.
func (r FlagReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonOffTopic, ReasonNSFW, ReasonOther:
		return true
	}
	return false
}

type FlagStatus string

const (
	FlagPending   FlagStatus = "pending"
	FlagReviewed  FlagStatus = "reviewed"
	FlagDismissed FlagStatus = "dismissed"
	FlagActioned  FlagStatus = "actioned"
)

// Terminal reports whether the flag has reached a final review outcome.
// Re-reviewing a terminal flag is a conflict.
func (s FlagStatus) Terminal() bool {
	return s == FlagDismissed || s == FlagActioned
}

// ModerationAction is the reviewer's decision on a pending flag, or the
// restore action on a moderated post.
type ModerationAction string

const (
	ActionDismiss ModerationAction = "dismiss"
	ActionHide    ModerationAction = "hide"
	ActionRemove  ModerationAction = "remove"
	ActionRestore ModerationAction = "restore"
)

// ModerationFlag is a user report against a post. Flags are kept forever as
// an audit trail; restoring a post does not touch its flag records.
type ModerationFlag struct {
	ID          uuid.UUID
	PostID      uuid.UUID
	ReporterID  uuid.UUID
	Reason      FlagReason
	Description *string
	Status      FlagStatus
	ReviewerID  *uuid.UUID
	ReviewedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FlagFilter narrows the privileged flag listing.
type FlagFilter struct {
	Status FlagStatus // empty = all
	Limit  int
	Offset int
}

type ModerationRepository interface {
	// UpsertFlag records a report. A repeat report by the same user updates
	// the existing flag's reason and description instead of duplicating.
	// The post transitions clean -> flagged on its first active flag, and
	// flag_count tracks non-dismissed flags, all in one transaction.
	UpsertFlag(ctx context.Context, postID, reporterID uuid.UUID, reason FlagReason, description *string) (*ModerationFlag, error)

	GetFlag(ctx context.Context, flagID uuid.UUID) (*ModerationFlag, error)

	ListFlags(ctx context.Context, filter FlagFilter) ([]*ModerationFlag, error)

	// ReviewFlag applies a dismiss/hide/remove decision: the flag reaches a
	// terminal status, and for hide/remove the post's moderation status and
	// moderated_at/by are stamped in the same transaction.
	ReviewFlag(ctx context.Context, flagID uuid.UUID, action ModerationAction, reviewerID uuid.UUID) (*ModerationFlag, error)

	// RestorePost returns a hidden/removed post to clean and clears the
	// moderation stamps. Flag records are left untouched.
	RestorePost(ctx context.Context, postID, reviewerID uuid.UUID) error
}
