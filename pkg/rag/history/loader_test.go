package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// wordCounter counts one token per whitespace-separated word.
type wordCounter struct{}

func (wordCounter) Count(text, model string) int {
	return len(strings.Fields(text))
}

type fakeSessionRepo struct {
	contract.ChatSessionRepository
	session *entity.ChatSession
}

func (f *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return f.session, nil
}

type fakeMessageRepo struct {
	contract.ChatMessageRepository
	newestFirst []*entity.ChatMessage
	err         error
}

func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.newestFirst, f.err
}

type fakeUow struct {
	unitofwork.UnitOfWork
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
}

func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return f.sessions
}

func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return f.messages
}

func msg(role, content string) *entity.ChatMessage {
	return &entity.ChatMessage{Id: uuid.New(), Role: role, Content: content}
}

func TestLoadSessionNotFound(t *testing.T) {
	uow := &fakeUow{
		sessions: &fakeSessionRepo{session: nil},
		messages: &fakeMessageRepo{},
	}
	loader := NewLoader(wordCounter{})

	_, _, err := loader.Load(context.Background(), uow, uuid.New(), "gpt-4o-mini", 3000, 6)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestLoadChronologicalOrder(t *testing.T) {
	summary := "earlier talk"
	uow := &fakeUow{
		sessions: &fakeSessionRepo{session: &entity.ChatSession{Id: uuid.New(), LongTermSummary: &summary}},
		messages: &fakeMessageRepo{newestFirst: []*entity.ChatMessage{
			msg("assistant", "third"),
			msg("user", "second"),
			msg("assistant", "first"),
		}},
	}
	loader := NewLoader(wordCounter{})

	history, gotSummary, err := loader.Load(context.Background(), uow, uuid.New(), "gpt-4o-mini", 3000, 6)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if history[i].Content != w {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, w)
		}
	}
	if gotSummary == nil || *gotSummary != summary {
		t.Errorf("summary = %v, want %q", gotSummary, summary)
	}
}

func TestLoadTokenBudgetTrims(t *testing.T) {
	// Five 4-word messages against a budget of 10 tokens and no minimum
	// floor keeps only the two newest.
	newestFirst := []*entity.ChatMessage{
		msg("assistant", "e e e e"),
		msg("user", "d d d d"),
		msg("assistant", "c c c c"),
		msg("user", "b b b b"),
		msg("assistant", "a a a a"),
	}
	uow := &fakeUow{
		sessions: &fakeSessionRepo{session: &entity.ChatSession{Id: uuid.New()}},
		messages: &fakeMessageRepo{newestFirst: newestFirst},
	}
	loader := NewLoader(wordCounter{})

	history, _, err := loader.Load(context.Background(), uow, uuid.New(), "gpt-4o-mini", 10, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if history[0].Content != "d d d d" || history[1].Content != "e e e e" {
		t.Errorf("kept [%q, %q], want the two newest in order", history[0].Content, history[1].Content)
	}
}

func TestLoadMinTurnsOverridesBudget(t *testing.T) {
	newestFirst := []*entity.ChatMessage{
		msg("assistant", "e e e e"),
		msg("user", "d d d d"),
		msg("assistant", "c c c c"),
		msg("user", "b b b b"),
	}
	uow := &fakeUow{
		sessions: &fakeSessionRepo{session: &entity.ChatSession{Id: uuid.New()}},
		messages: &fakeMessageRepo{newestFirst: newestFirst},
	}
	loader := NewLoader(wordCounter{})

	// Budget fits only one message but the floor demands three.
	history, _, err := loader.Load(context.Background(), uow, uuid.New(), "gpt-4o-mini", 4, 3)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
}
