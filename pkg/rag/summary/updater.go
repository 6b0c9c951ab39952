// Package summary maintains each session's rolling long-term summary.
package summary

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	summarySystemPrompt = "You are a helpful assistant that creates concise conversation summaries."

	summaryTemperature = 0.5
	summaryMaxTokens   = 200
)

type Updater struct {
	provider llm.LLMProvider
	logger   *log.Logger

	// OnUpdated, when set, is called after a new summary is persisted.
	OnUpdated func(ctx context.Context, sessionID uuid.UUID, summary string)
}

func NewUpdater(provider llm.LLMProvider, logger *log.Logger) *Updater {
	return &Updater{provider: provider, logger: logger}
}

// MaybeUpdate refreshes the session summary when the assistant message
// count hits the summarization interval. Failures are logged and
// swallowed so a missing summary never fails the turn.
func (u *Updater) MaybeUpdate(ctx context.Context, uow unitofwork.UnitOfWork, sessionID uuid.UUID, model string) {
	count, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.ByRole{Role: constant.RoleAssistant},
	)
	if err != nil {
		u.logger.Printf("[SUMMARY] Counting assistant messages failed: %v", err)
		return
	}
	if count == 0 || count%constant.SummaryInterval != 0 {
		return
	}

	u.logger.Printf("[SUMMARY] Generating summary for session %s (turn %d)", sessionID, count)

	recent, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: constant.SummaryWindow},
	)
	if err != nil {
		u.logger.Printf("[SUMMARY] Loading recent messages failed: %v", err)
		return
	}

	// Oldest first, one "Role: content" line per message.
	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		lines = append(lines, fmt.Sprintf("%s: %s", capitalize(msg.Role), msg.Content))
	}
	conversation := strings.Join(lines, "\n")

	result, err := u.provider.Chat(ctx, []llm.Message{
		{Role: constant.RoleSystem, Content: summarySystemPrompt},
		{Role: constant.RoleUser, Content: fmt.Sprintf("Create a brief summary of this conversation (2-3 sentences):\n\n%s", conversation)},
	},
		llm.WithModel(model),
		llm.WithTemperature(summaryTemperature),
		llm.WithMaxTokens(summaryMaxTokens),
	)
	if err != nil {
		u.logger.Printf("[SUMMARY] Generation failed for session %s: %v", sessionID, err)
		return
	}

	if err := uow.ChatSessionRepository().UpdateSummary(ctx, sessionID, result.Content); err != nil {
		u.logger.Printf("[SUMMARY] Persisting summary failed for session %s: %v", sessionID, err)
		return
	}

	if u.OnUpdated != nil {
		u.OnUpdated(ctx, sessionID, result.Content)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
