package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Valid reports whether the vote type is one of the two accepted values.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote is one user's standing opinion on one post. At most one row exists
// per (post, user); deleting the row is the only path back to "no opinion".
type Vote struct {
	PostID    uuid.UUID
	UserID    uuid.UUID
	VoteType  VoteType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteResult is the outcome of a vote toggle. Vote is nil when the toggle
// cancelled an existing vote. Callers re-fetch the post for fresh counters.
type VoteResult struct {
	Vote *Vote
}

type VoteRepository interface {
	// Toggle applies the three-state vote transition (none/up/down) for the
	// given user and post as a single transaction: the vote row mutation and
	// the post counter update commit or roll back together.
	Toggle(ctx context.Context, postID, userID uuid.UUID, voteType VoteType) (*VoteResult, error)
}
