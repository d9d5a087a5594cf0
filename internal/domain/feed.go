package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FeedSort string

const (
	SortHot           FeedSort = "hot"
	SortChronological FeedSort = "chronological"
)

// Valid reports whether the sort is one of the two supported modes.
func (s FeedSort) Valid() bool {
	return s == SortHot || s == SortChronological
}

// FeedQuery describes one page request against the root feed. RankedAt is
// the reference instant for hot-score computation; for page two and beyond
// it comes out of the cursor so every page of a traversal ranks against the
// same instant.
type FeedQuery struct {
	Sort     FeedSort
	Limit    int
	RankedAt time.Time

	// After* bound the page: items strictly after the cursor position in
	// sort order. Zero values mean "first page".
	AfterHotScore  float64
	AfterCreatedAt time.Time
	AfterID        uuid.UUID
	HasCursor      bool
}

// FeedItem pairs a post with the hot score the store computed for it. The
// score comes back from the ranking query itself so cursors compare against
// exactly the value the database ordered by.
type FeedItem struct {
	Post     *Post
	HotScore float64
}

// FeedPage is one page of visible top-level posts plus a flag telling the
// paginator whether another page exists.
type FeedPage struct {
	Items   []FeedItem
	HasMore bool
}

type FeedRepository interface {
	// ListPage returns up to Limit+1 visible, top-level, non-deleted posts
	// in the requested order, excluding hidden and removed posts at query
	// time.
	ListPage(ctx context.Context, q FeedQuery) (*FeedPage, error)
}
