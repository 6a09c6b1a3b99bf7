// Package intent guesses what a user meant when their input matched no
// command. Both heuristics are advisory.
package intent

import "strings"

// Suggestion is a canned hint for unrecognised input. Confidence is
// informational only.
type Suggestion struct {
	Text       string
	Confidence float64
}

type rule struct {
	keywords   []string
	exact      []string
	suggestion Suggestion
}

var rules = []rule{
	{
		keywords:   []string{"enes", "connect", "login", "ssh"},
		exact:      []string{"enes.codes"},
		suggestion: Suggestion{Text: "Did you mean: ssh enes.codes ?", Confidence: 0.9},
	},
	{
		keywords:   []string{"about", "cv", "resume", "portfolio"},
		exact:      []string{"projects?"},
		suggestion: Suggestion{Text: "Try: projects or experience", Confidence: 0.8},
	},
	{
		keywords:   []string{"tech", "stack", "skills"},
		suggestion: Suggestion{Text: "Try: stack", Confidence: 0.7},
	},
	{
		keywords:   []string{"contact", "email", "reach"},
		suggestion: Suggestion{Text: "Try: contact", Confidence: 0.7},
	},
}

// Detect matches input against the keyword table. The first matching rule
// wins.
func Detect(input string) (Suggestion, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Suggestion{}, false
	}
	for _, r := range rules {
		for _, e := range r.exact {
			if normalized == e {
				return r.suggestion, true
			}
		}
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return r.suggestion, true
			}
		}
	}
	return Suggestion{}, false
}

// SuggestCommand returns the candidate closest to input by edit distance,
// provided the distance is at most 2 and the normalised similarity exceeds
// 0.6. On equal distance the earlier candidate wins.
func SuggestCommand(input string, candidates []string) (string, bool) {
	normalized := strings.ToLower(input)
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := Levenshtein(normalized, strings.ToLower(c))
		maxLen := max(len([]rune(normalized)), len([]rune(c)))
		if maxLen == 0 {
			continue
		}
		similarity := 1 - float64(d)/float64(maxLen)
		if similarity > 0.6 && d <= 2 && (bestDistance < 0 || d < bestDistance) {
			best, bestDistance = c, d
		}
	}
	return best, bestDistance >= 0
}

// Levenshtein returns the edit distance between a and b counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
