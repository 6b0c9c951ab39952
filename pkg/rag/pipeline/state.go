package pipeline

import (
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/retrieval"

	"github.com/google/uuid"
)

// Request describes one conversation turn to execute.
type Request struct {
	SessionID   uuid.UUID
	UserMessage string
	Model       string
	Retrieval   retrieval.Config
}

// State carries the intermediate values threaded through the stages of
// a single turn.
type State struct {
	SessionID   uuid.UUID
	UserMessage string
	Model       string

	History []llm.Message
	Summary *string

	NeedRetrieval bool
	Retrieved     []retrieval.ScoredChunk

	Draft    string
	Metadata TurnMetadata
}

// TurnMetadata collects per-turn diagnostics persisted alongside the
// assistant message.
type TurnMetadata struct {
	TokensUsed      int
	Model           string
	FinishReason    string
	RetrievalCount  int
	ContextMessages int
	// RetrievalError notes a recovered retrieval failure. The turn still
	// completed, just without knowledge base context.
	RetrievalError string
}

// ToMap renders the metadata in the shape stored on the message record.
func (m TurnMetadata) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"tokens_used":      m.TokensUsed,
		"model":            m.Model,
		"finish_reason":    m.FinishReason,
		"retrieval_count":  m.RetrievalCount,
		"context_messages": m.ContextMessages,
	}
	if m.RetrievalError != "" {
		out["retrieval_error"] = m.RetrievalError
	}
	return out
}

// TurnResult is what a completed turn hands back to the caller.
type TurnResult struct {
	Content string
	// Retrieved holds the scored passages grounding the reply. Empty
	// when retrieval was skipped or recovered from a failure.
	Retrieved []retrieval.ScoredChunk
	Metadata  TurnMetadata
}
