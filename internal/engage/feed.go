package engage

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

// hotAgeOffset dampens the ranking of very fresh posts so a single early
// upvote cannot pin a post to the top.
const hotAgeOffset = 2.0

// Ranker computes hot scores for the feed. Gravity is the decay exponent;
// it comes from configuration, not a fixed constant.
type Ranker struct {
	gravity float64
}

func NewRanker(gravity float64) *Ranker {
	return &Ranker{gravity: gravity}
}

// Gravity returns the configured decay exponent.
func (r *Ranker) Gravity() float64 {
	return r.gravity
}

// HotScore blends vote score and recency: score / (age_hours + 2)^gravity.
// rankedAt is the reference instant; every page of one feed traversal uses
// the same rankedAt so page boundaries stay stable while counters move.
func (r *Ranker) HotScore(voteScore int, createdAt, rankedAt time.Time) float64 {
	ageHours := rankedAt.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(voteScore) / math.Pow(ageHours+hotAgeOffset, r.gravity)
}

// Cursor is the composite sort key of the last item on a page. Clients
// receive it base64-encoded and treat it as opaque.
type Cursor struct {
	Sort      domain.FeedSort `json:"s"`
	RankedAt  time.Time       `json:"t"`
	HotScore  float64         `json:"h,omitempty"`
	CreatedAt time.Time       `json:"c"`
	ID        uuid.UUID       `json:"i"`
}

// EncodeCursor serializes a cursor to its opaque wire form.
func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor fields are all marshalable; this cannot happen.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor and checks it belongs to the
// requested sort. Any malformed or mismatched cursor yields
// domain.ErrInvalidCursor so the client restarts from the first page.
func DecodeCursor(raw string, expected domain.FeedSort) (Cursor, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Cursor{}, domain.ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(decoded, &c); err != nil {
		return Cursor{}, domain.ErrInvalidCursor
	}

	if c.Sort != expected || c.ID == uuid.Nil {
		return Cursor{}, domain.ErrInvalidCursor
	}
	if c.Sort == domain.SortHot && c.RankedAt.IsZero() {
		return Cursor{}, domain.ErrInvalidCursor
	}
	if c.Sort == domain.SortChronological && c.CreatedAt.IsZero() {
		return Cursor{}, domain.ErrInvalidCursor
	}

	return c, nil
}
