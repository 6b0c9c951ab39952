package utils

import (
	"strings"
	"testing"
)

func TestChunkTextShortParagraph(t *testing.T) {
	got := ChunkText("a short paragraph", 500)
	if len(got) != 1 || got[0] != "a short paragraph" {
		t.Errorf("got %v", got)
	}
}

func TestChunkTextParagraphBoundaries(t *testing.T) {
	got := ChunkText("first paragraph\n\nsecond paragraph\n", 500)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != "first paragraph" || got[1] != "second paragraph" {
		t.Errorf("got %v", got)
	}
}

func TestChunkTextWrapsLongParagraph(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("word ", 30))
	got := ChunkText(para, 20)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, c := range got {
		if len(c) > 20 {
			t.Errorf("chunk %d exceeds max length: %q", i, c)
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d has boundary whitespace: %q", i, c)
		}
	}

	if strings.Join(got, " ") != para {
		t.Errorf("wrapping lost content: %q", strings.Join(got, " "))
	}
}

func TestChunkTextHardSplitsOversizedWord(t *testing.T) {
	got := ChunkText(strings.Repeat("x", 25), 10)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != strings.Repeat("x", 10) || got[2] != strings.Repeat("x", 5) {
		t.Errorf("got %v", got)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	if got := ChunkText("", 500); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
	if got := ChunkText("\n\n  \n", 500); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
