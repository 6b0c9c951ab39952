package utils

import "strings"

// ChunkText splits raw text into chunks of at most maxLen characters.
// Paragraphs (newline separated) never share a chunk; within a
// paragraph the split is a greedy word wrap, so words stay whole unless
// a single word exceeds maxLen.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		return nil
	}

	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		para := strings.TrimSpace(line)
		if para == "" {
			continue
		}
		chunks = append(chunks, wrap(para, maxLen)...)
	}
	return chunks
}

func wrap(para string, width int) []string {
	words := strings.Fields(para)

	var lines []string
	var current strings.Builder
	for _, word := range words {
		// Hard-split words that cannot fit on any line.
		for len(word) > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		if word == "" {
			continue
		}

		needed := len(word)
		if current.Len() > 0 {
			needed += current.Len() + 1
		}
		if needed > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
