package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the post-level visibility state maintained by the
// moderation state machine. Transitions are validated in internal/engage.
type ModerationStatus string

const (
	StatusClean   ModerationStatus = "clean"
	StatusFlagged ModerationStatus = "flagged"
	// StatusDismissed: the post was flagged and a reviewer dismissed the
	// last pending flag. Visible like clean; kept distinct as report
	// history.
	StatusDismissed ModerationStatus = "dismissed"
	StatusHidden    ModerationStatus = "hidden"
	StatusRemoved   ModerationStatus = "removed"
)

// Visible reports whether a post with this status participates in public
// read paths (feed, thread view for non-moderators).
func (s ModerationStatus) Visible() bool {
	return s == StatusClean || s == StatusFlagged || s == StatusDismissed
}

// Post is the aggregation root of the engagement subsystem. The counter
// fields are denormalized and mutated exclusively by the store's
// transactional write path.
type Post struct {
	ID       uuid.UUID
	AuthorID uuid.UUID

	// ParentID is set for replies; a reply must reference an existing,
	// non-deleted ancestor.
	ParentID *uuid.UUID

	// QuotedPostID and QuotedContentSnapshot capture a quote at creation
	// time. The snapshot never changes, even if the quoted post is later
	// edited or deleted.
	QuotedPostID          *uuid.UUID
	QuotedContentSnapshot *string

	Content  string
	MediaRef *string

	Deleted  bool
	EditedAt *time.Time

	ReplyCount    int
	VoteScore     int
	UpvoteCount   int
	DownvoteCount int
	ReactionCount int
	FlagCount     int

	ModerationStatus ModerationStatus
	ModeratedAt      *time.Time
	ModeratedBy      *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePostParams carries the write-path inputs for a new post, reply or
// quote. Exactly the author-supplied fields; counters start at zero.
type CreatePostParams struct {
	AuthorID     uuid.UUID
	Content      string
	ParentID     *uuid.UUID
	QuotedPostID *uuid.UUID
	MediaRef     *string
}

type PostRepository interface {
	// Create inserts the post and, for replies, increments the parent's
	// reply_count in the same transaction. For quotes it snapshots the
	// quoted post's content at insert time.
	Create(ctx context.Context, params CreatePostParams) (*Post, error)

	// GetByID returns the post regardless of visibility; callers apply
	// moderation filtering.
	GetByID(ctx context.Context, postID uuid.UUID) (*Post, error)

	// Edit replaces the content and stamps edited_at. Author-only.
	Edit(ctx context.Context, postID, authorID uuid.UUID, content string) (*Post, error)

	// SoftDelete marks the post deleted and decrements the parent's
	// reply_count for replies. asModerator bypasses the author check.
	SoftDelete(ctx context.Context, postID, callerID uuid.UUID, asModerator bool) error

	// GetThread returns the post plus its direct and transitive replies,
	// oldest first.
	GetThread(ctx context.Context, postID uuid.UUID) (*Post, []*Post, error)
}
