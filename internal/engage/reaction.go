package engage

import "github.com/biscuits-internet-project/bip-engage/internal/domain"

// allowedEmoji is the fixed reaction vocabulary. Reactions validate against
// this set, never against user-supplied text.
var allowedEmoji = map[string]struct{}{
	"👍": {},
	"👎": {},
	"❤️": {},
	"🔥": {},
	"😂": {},
	"😮": {},
	"😢": {},
	"🎉": {},
	"🎸": {},
}

// ValidateEmoji checks an emoji code against the allow-list.
func ValidateEmoji(code string) error {
	if _, ok := allowedEmoji[code]; !ok {
		return domain.ErrInvalidEmoji
	}
	return nil
}

// AllowedEmoji returns a copy of the reaction vocabulary for clients that
// render a picker.
func AllowedEmoji() []string {
	codes := make([]string, 0, len(allowedEmoji))
	for code := range allowedEmoji {
		codes = append(codes, code)
	}
	return codes
}
