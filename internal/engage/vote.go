package engage

import "github.com/biscuits-internet-project/bip-engage/internal/domain"

// VoteAction names the row operation a vote toggle resolved to.
type VoteAction string

const (
	// VoteCreated: no prior vote, insert a row.
	VoteCreated VoteAction = "created"
	// VoteSwitched: prior vote of the opposite type, update the row.
	VoteSwitched VoteAction = "switched"
	// VoteCancelled: prior vote of the same type, delete the row.
	VoteCancelled VoteAction = "cancelled"
)

// VoteChange is the full effect of one vote toggle: the row operation plus
// the counter deltas the store must apply in the same transaction.
type VoteChange struct {
	Action VoteAction

	// NewType is the vote state after the toggle; nil when cancelled.
	NewType *domain.VoteType

	ScoreDelta int
	UpDelta    int
	DownDelta  int
}

// scoreValue maps a vote type onto its score contribution.
func scoreValue(t domain.VoteType) int {
	if t == domain.VoteUp {
		return 1
	}
	return -1
}

// VoteTransition resolves the three-state vote machine (none, upvote,
// downvote) for one toggle. current is the caller's existing vote, nil for
// none. The transitions:
//
//	none     -> requested : create, delta ±1
//	same     -> none      : cancel, delta ∓1
//	opposite -> requested : switch, delta ±2
func VoteTransition(current *domain.VoteType, requested domain.VoteType) VoteChange {
	if current == nil {
		change := VoteChange{Action: VoteCreated, NewType: &requested, ScoreDelta: scoreValue(requested)}
		if requested == domain.VoteUp {
			change.UpDelta = 1
		} else {
			change.DownDelta = 1
		}
		return change
	}

	if *current == requested {
		change := VoteChange{Action: VoteCancelled, ScoreDelta: -scoreValue(requested)}
		if requested == domain.VoteUp {
			change.UpDelta = -1
		} else {
			change.DownDelta = -1
		}
		return change
	}

	change := VoteChange{Action: VoteSwitched, NewType: &requested, ScoreDelta: 2 * scoreValue(requested)}
	if requested == domain.VoteUp {
		change.UpDelta = 1
		change.DownDelta = -1
	} else {
		change.UpDelta = -1
		change.DownDelta = 1
	}
	return change
}
