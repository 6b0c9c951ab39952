// Package history loads token-bounded conversation context for the
// synthesis prompt.
package history

import (
	"context"
	"errors"
	"fmt"

	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/tokenizer"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// fetchWindow is how many recent messages are pulled before trimming.
const fetchWindow = 20

type Loader struct {
	counter tokenizer.TokenCounter
}

func NewLoader(counter tokenizer.TokenCounter) *Loader {
	return &Loader{counter: counter}
}

// Load returns the most recent conversation turns in chronological order
// together with the session's long-term summary. Messages are dropped
// oldest-first once the token budget is exceeded, but at least minTurns
// messages are always kept when the session has them.
func (l *Loader) Load(ctx context.Context, uow unitofwork.UnitOfWork, sessionID uuid.UUID, model string, maxTokens, minTurns int) ([]llm.Message, *string, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: fetchWindow},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}

	// Walk newest-first, stop once the budget is spent and the minimum
	// turn floor is satisfied.
	loaded := make([]llm.Message, 0, len(messages))
	tokenCount := 0
	for _, msg := range messages {
		msgTokens := l.counter.Count(msg.Content, model)
		if tokenCount+msgTokens <= maxTokens || len(loaded) < minTurns {
			loaded = append(loaded, llm.Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
			tokenCount += msgTokens
		} else {
			break
		}
	}

	// Back to chronological order.
	for i, j := 0, len(loaded)-1; i < j; i, j = i+1, j-1 {
		loaded[i], loaded[j] = loaded[j], loaded[i]
	}

	return loaded, session.LongTermSummary, nil
}
