package decision

import "testing"

func TestNeedsRetrieval(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"greeting", "hi", false},
		{"greeting with case and spaces", "  Hello  ", false},
		{"acknowledgement", "thanks", false},
		{"multi word acknowledgement", "thank you", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"question word", "What is machine learning", true},
		{"question mark", "Is this correct?", true},
		{"embedded question word", "Now tell me more", true},
		{"document reference", "summarize the document please", true},
		{"phrase reference", "according to the report, sales rose", true},
		{"long message", "one two three four five six seven eight nine ten eleven", true},
		{"exactly ten words", "one two three four five six seven eight nine ten", false},
		{"short statement", "nice weather today", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRetrieval(tt.message); got != tt.want {
				t.Errorf("NeedsRetrieval(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}
