// Package decision implements the heuristic that decides whether a user
// turn warrants a knowledge base lookup before generation.
package decision

import "strings"

var questionWords = []string{
	"what", "how", "why", "when", "where", "who",
	"explain", "tell", "describe",
}

var referenceWords = []string{
	"document", "file", "source", "according to", "based on",
}

var trivialMessages = map[string]struct{}{
	"hi":        {},
	"hello":     {},
	"thanks":    {},
	"thank you": {},
	"ok":        {},
	"okay":      {},
	"yes":       {},
	"no":        {},
}

// NeedsRetrieval reports whether the message looks like a question or a
// reference to uploaded material. Trivial greetings and acknowledgements
// never trigger retrieval.
func NeedsRetrieval(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return false
	}
	if _, ok := trivialMessages[normalized]; ok {
		return false
	}

	if strings.Contains(normalized, "?") {
		return true
	}

	for _, q := range questionWords {
		if strings.Contains(normalized, q) {
			return true
		}
	}

	for _, r := range referenceWords {
		if strings.Contains(normalized, r) {
			return true
		}
	}

	// Long messages tend to carry enough substance to ground an answer.
	return len(strings.Fields(normalized)) > 10
}
