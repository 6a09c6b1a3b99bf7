package kernel

import "github.com/enesbrtc/enes.codes/internal/intent"

// IntentHint prefers a close command name and falls back to keyword intent.
func IntentHint(name, raw string, known []string) (string, bool) {
	if suggestion, ok := intent.SuggestCommand(name, known); ok {
		return "Did you mean: " + suggestion + " ?", true
	}
	if s, ok := intent.Detect(raw); ok {
		return s.Text, true
	}
	return "", false
}
