// Package scoring maps raw inputs to canonical responses and grades them.
package scoring

import (
	"strings"

	"github.com/aretw0/mrt/pkg/domain"
)

// Keymap is the two-entry table of input identities that resolve a trial.
// Matching is case-insensitive. The on-screen control identities
// domain.ControlSame and domain.ControlMirror are always accepted.
type Keymap struct {
	Same   string
	Mirror string
}

// DefaultKeymap is f for same, j for mirror.
var DefaultKeymap = Keymap{Same: "f", Mirror: "j"}

// Resolve maps a raw input to a response. ok is false for any input that must
// be ignored rather than scored.
func (k Keymap) Resolve(input string) (resp domain.Response, ok bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}
	switch in {
	case strings.ToLower(k.Same), domain.ControlSame:
		return domain.ResponseSame, true
	case strings.ToLower(k.Mirror), domain.ControlMirror:
		return domain.ResponseMirror, true
	}
	return "", false
}

// Score reports whether resp is the correct answer for cond. A timeout is never correct.
func Score(resp domain.Response, cond domain.Condition) bool {
	switch resp {
	case domain.ResponseSame:
		return cond == domain.ConditionSame
	case domain.ResponseMirror:
		return cond == domain.ConditionMirror
	}
	return false
}

// Feedback is the practice message for a resolved trial.
func Feedback(resp domain.Response, correct bool) domain.Feedback {
	switch {
	case resp == domain.ResponseNone:
		return domain.Feedback{Text: domain.FeedbackTooSlow, Color: domain.ColorTooSlow}
	case correct:
		return domain.Feedback{Text: domain.FeedbackCorrect, Color: domain.ColorCorrect}
	default:
		return domain.Feedback{Text: domain.FeedbackIncorrect, Color: domain.ColorIncorrect}
	}
}
