package prompt

import "strings"

// injectionPatterns are removed from user input before it reaches the
// model. Matching is case sensitive and purely substring based.
var injectionPatterns = []string{
	"ignore previous instructions",
	"ignore all previous",
	"system:",
	"assistant:",
	"<|im_start|>",
	"<|im_end|>",
	"<|endoftext|>",
}

// Sanitize strips known prompt injection markers and trims whitespace.
func Sanitize(message string) string {
	cleaned := message
	for _, pattern := range injectionPatterns {
		cleaned = strings.ReplaceAll(cleaned, pattern, "")
	}
	return strings.TrimSpace(cleaned)
}
