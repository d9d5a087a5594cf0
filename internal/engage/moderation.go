package engage

import "github.com/biscuits-internet-project/bip-engage/internal/domain"

// transitionKey pairs a post's current moderation status with a reviewing
// action.
type transitionKey struct {
	status domain.ModerationStatus
	action domain.ModerationAction
}

// postTransitions is the explicit transition table for post visibility.
// A missing entry is an illegal transition. Dismiss is absent on purpose:
// dismissing a flag only changes the post through CollapseDismissed.
var postTransitions = map[transitionKey]domain.ModerationStatus{
	{domain.StatusClean, domain.ActionHide}:     domain.StatusHidden,
	{domain.StatusFlagged, domain.ActionHide}:   domain.StatusHidden,
	{domain.StatusDismissed, domain.ActionHide}: domain.StatusHidden,

	{domain.StatusClean, domain.ActionRemove}:     domain.StatusRemoved,
	{domain.StatusFlagged, domain.ActionRemove}:   domain.StatusRemoved,
	{domain.StatusDismissed, domain.ActionRemove}: domain.StatusRemoved,
	{domain.StatusHidden, domain.ActionRemove}:    domain.StatusRemoved,

	{domain.StatusHidden, domain.ActionRestore}:  domain.StatusClean,
	{domain.StatusRemoved, domain.ActionRestore}: domain.StatusClean,
}

// NextPostStatus resolves the effect of a hide/remove/restore action on a
// post's moderation status. Returns ErrInvalidTransition for combinations
// the table does not permit.
func NextPostStatus(current domain.ModerationStatus, action domain.ModerationAction) (domain.ModerationStatus, error) {
	next, ok := postTransitions[transitionKey{current, action}]
	if !ok {
		return current, domain.ErrInvalidTransition
	}
	return next, nil
}

// CollapseDismissed resolves what dismissing a flag does to the post:
// nothing, unless it was the last pending flag on a flagged post, in which
// case the post settles to dismissed.
func CollapseDismissed(current domain.ModerationStatus, pendingRemaining int) domain.ModerationStatus {
	if current == domain.StatusFlagged && pendingRemaining == 0 {
		return domain.StatusDismissed
	}
	return current
}

// StatusAfterFlag resolves what a new report does to the post's status.
// Hidden and removed posts keep their status; everything else becomes
// flagged.
func StatusAfterFlag(current domain.ModerationStatus) domain.ModerationStatus {
	if current == domain.StatusHidden || current == domain.StatusRemoved {
		return current
	}
	return domain.StatusFlagged
}

// FlagOutcome maps a review action onto the terminal flag status.
func FlagOutcome(action domain.ModerationAction) (domain.FlagStatus, error) {
	switch action {
	case domain.ActionDismiss:
		return domain.FlagDismissed, nil
	case domain.ActionHide, domain.ActionRemove:
		return domain.FlagActioned, nil
	default:
		return "", domain.ErrInvalidTransition
	}
}

// CanReview guards against re-reviewing a flag that already reached a
// terminal status.
func CanReview(status domain.FlagStatus) error {
	if status.Terminal() {
		return domain.ErrFlagAlreadyReviewed
	}
	return nil
}
