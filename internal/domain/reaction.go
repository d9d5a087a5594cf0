package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reaction is one user's use of one emoji on one post. Unique per
// (post, user, emoji); independent of votes and of other emojis.
type Reaction struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	UserID    uuid.UUID
	EmojiCode string
	CreatedAt time.Time
}

// ReactionResult is the outcome of a reaction toggle. Reaction is nil when
// the toggle removed an existing reaction.
type ReactionResult struct {
	Reaction *Reaction
	// Added is true for toggle-on, false for toggle-off.
	Added bool
}

// ReactionCount is a per-emoji aggregate for one post, computed at read time.
type ReactionCount struct {
	EmojiCode string
	Count     int
}

type ReactionRepository interface {
	// Toggle creates the reaction on first use and removes it on repeat,
	// adjusting the post's reaction_count in the same transaction.
	Toggle(ctx context.Context, postID, userID uuid.UUID, emojiCode string) (*ReactionResult, error)

	// CountsForPost returns per-emoji counts, highest first.
	CountsForPost(ctx context.Context, postID uuid.UUID) ([]ReactionCount, error)
}
