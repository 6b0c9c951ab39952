// Package prompt assembles the message sequence sent to the chat model.
package prompt

import (
	"fmt"
	"strings"

	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/retrieval"
)

// SystemPrompt frames every synthesis call.
const SystemPrompt = "You are a helpful AI assistant with access to a knowledge base. Answer questions accurately based on the provided context. If the context doesn't contain relevant information, say so clearly. Be concise but comprehensive."

// Assemble builds the full prompt: system framing, optional summary
// note, optional retrieved context, conversation history, then the
// sanitized user message. When the newest history entry sanitizes to
// the same text as the user message it is skipped so the turn appears
// once.
func Assemble(userMessage string, retrieved []retrieval.ScoredChunk, history []llm.Message, summary *string) []llm.Message {
	messages := []llm.Message{
		{Role: "system", Content: SystemPrompt},
	}

	if summary != nil && *summary != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("Previous conversation summary: %s", *summary),
		})
	}

	if len(retrieved) > 0 {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("Relevant information from knowledge base:\n\n%s", formatRetrieved(retrieved)),
		})
	}

	sanitized := Sanitize(userMessage)

	for i, msg := range history {
		// The caller may have persisted the current turn already. History
		// holds the raw text, so sanitize before comparing.
		if i == len(history)-1 && msg.Role == "user" && Sanitize(msg.Content) == sanitized {
			continue
		}
		messages = append(messages, msg)
	}

	messages = append(messages, llm.Message{Role: "user", Content: sanitized})
	return messages
}

// formatRetrieved renders chunks as numbered source blocks with their
// filename and two-decimal relevance.
func formatRetrieved(retrieved []retrieval.ScoredChunk) string {
	blocks := make([]string, len(retrieved))
	for i, sc := range retrieved {
		filename := sc.Chunk.DocumentFilename
		if filename == "" {
			filename = "Unknown"
		}
		blocks[i] = fmt.Sprintf("[Source %d: %s (relevance: %.2f)]\n%s", i+1, filename, sc.Score, sc.Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}
