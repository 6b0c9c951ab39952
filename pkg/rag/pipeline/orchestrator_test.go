package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/retrieval"
	"rag-chat-be/pkg/rag/summary"

	"github.com/google/uuid"
)

type wordCounter struct{}

func (wordCounter) Count(text, model string) int {
	return len(strings.Fields(text))
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeProvider struct {
	lastMessages []llm.Message
	result       *llm.Result
	err          error
	calls        int
	sawDeadline  bool
}

func (f *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Result, error) {
	f.calls++
	f.lastMessages = messages
	_, f.sawDeadline = ctx.Deadline()
	return f.result, f.err
}

func (f *fakeProvider) ChatStream(ctx context.Context, messages []llm.Message, onDelta func(string) error, opts ...llm.Option) (*llm.Result, error) {
	res, err := f.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}
	if err := onDelta(res.Content); err != nil {
		return nil, err
	}
	return res, nil
}

type fakeSessionRepo struct {
	contract.ChatSessionRepository
	session *entity.ChatSession
}

func (f *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return f.session, nil
}

func (f *fakeSessionRepo) UpdateSummary(ctx context.Context, id uuid.UUID, s string) error {
	return nil
}

type fakeMessageRepo struct {
	contract.ChatMessageRepository
	newestFirst    []*entity.ChatMessage
	assistantCount int64
}

func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return f.newestFirst, nil
}

func (f *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return f.assistantCount, nil
}

type fakeChunkRepo struct {
	contract.DocumentChunkRepository
	candidates []*entity.DocumentChunk
	err        error
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int, filter contract.ChunkFilter) ([]*entity.DocumentChunk, error) {
	return f.candidates, f.err
}

type fakeUow struct {
	unitofwork.UnitOfWork
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	chunks   *fakeChunkRepo
}

func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return f.sessions
}

func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return f.messages
}

func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return f.chunks
}

func newTestUow() *fakeUow {
	return &fakeUow{
		sessions: &fakeSessionRepo{session: &entity.ChatSession{Id: uuid.New()}},
		messages: &fakeMessageRepo{assistantCount: 1},
		chunks:   &fakeChunkRepo{},
	}
}

func newOrchestrator(provider llm.LLMProvider, embedder *fakeEmbedder) *Orchestrator {
	logger := log.New(io.Discard, "", 0)
	return NewOrchestrator(
		DefaultConfig(),
		history.NewLoader(wordCounter{}),
		embedder,
		provider,
		summary.NewUpdater(provider, logger),
		logger,
	)
}

func testRequest(message string) Request {
	return Request{
		SessionID:   uuid.New(),
		UserMessage: message,
		Model:       "gpt-4o-mini",
		Retrieval:   retrieval.DefaultConfig(),
	}
}

func TestExecuteSkipsRetrievalForGreeting(t *testing.T) {
	provider := &fakeProvider{result: &llm.Result{Content: "Hello!", TokensUsed: 7, Model: "gpt-4o-mini", FinishReason: "stop"}}
	embedder := &fakeEmbedder{err: errors.New("should not be called")}
	orch := newOrchestrator(provider, embedder)

	result, err := orch.Execute(context.Background(), newTestUow(), testRequest("hi"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Content != "Hello!" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Metadata.RetrievalCount != 0 {
		t.Errorf("retrieval count = %d, want 0", result.Metadata.RetrievalCount)
	}
	if result.Metadata.RetrievalError != "" {
		t.Errorf("unexpected retrieval error: %q", result.Metadata.RetrievalError)
	}
	if len(result.Retrieved) != 0 {
		t.Errorf("retrieved passages = %d, want none", len(result.Retrieved))
	}
}

func TestExecuteRetrievesForQuestion(t *testing.T) {
	provider := &fakeProvider{result: &llm.Result{Content: "Answer.", TokensUsed: 20, Model: "gpt-4o-mini", FinishReason: "stop"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	orch := newOrchestrator(provider, embedder)

	uow := newTestUow()
	uow.chunks.candidates = []*entity.DocumentChunk{
		{Id: uuid.New(), Text: "chunk one", Embedding: []float32{1, 0, 0}, DocumentFilename: "a.txt"},
		{Id: uuid.New(), Text: "chunk two", Embedding: []float32{0, 1, 0}, DocumentFilename: "b.txt"},
	}

	result, err := orch.Execute(context.Background(), uow, testRequest("What is in the document?"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Metadata.RetrievalCount != 2 {
		t.Errorf("retrieval count = %d, want 2", result.Metadata.RetrievalCount)
	}
	if len(result.Retrieved) != 2 {
		t.Fatalf("retrieved passages = %d, want 2", len(result.Retrieved))
	}
	if result.Retrieved[0].Chunk.Text != "chunk one" || result.Retrieved[0].Score < 0.999 {
		t.Errorf("top passage = %q score %f, want chunk one ~1.0", result.Retrieved[0].Chunk.Text, result.Retrieved[0].Score)
	}

	var contextNote string
	for _, m := range provider.lastMessages {
		if m.Role == "system" && strings.Contains(m.Content, "Relevant information from knowledge base") {
			contextNote = m.Content
		}
	}
	if contextNote == "" {
		t.Fatal("prompt is missing the knowledge base note")
	}
	if !strings.Contains(contextNote, "[Source 1: a.txt (relevance: 1.00)]") {
		t.Errorf("context note malformed:\n%s", contextNote)
	}
}

func TestExecuteRecoversFromRetrievalFailure(t *testing.T) {
	provider := &fakeProvider{result: &llm.Result{Content: "Best effort answer.", Model: "gpt-4o-mini", FinishReason: "stop"}}
	embedder := &fakeEmbedder{err: fmt.Errorf("embedding service down")}
	orch := newOrchestrator(provider, embedder)

	result, err := orch.Execute(context.Background(), newTestUow(), testRequest("What does the file say?"))
	if err != nil {
		t.Fatalf("Execute() error = %v, want recovered turn", err)
	}
	if result.Content != "Best effort answer." {
		t.Errorf("content = %q", result.Content)
	}
	if result.Metadata.RetrievalError == "" {
		t.Error("metadata missing retrieval error annotation")
	}
	if result.Metadata.RetrievalCount != 0 {
		t.Errorf("retrieval count = %d, want 0", result.Metadata.RetrievalCount)
	}
}

func TestExecuteRateLimitIsTerminal(t *testing.T) {
	provider := &fakeProvider{err: llm.NewError(llm.KindRateLimit, errors.New("429"))}
	orch := newOrchestrator(provider, &fakeEmbedder{vector: []float32{1}})

	_, err := orch.Execute(context.Background(), newTestUow(), testRequest("hi"))
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeGenerationRateLimited {
		t.Errorf("code = %s, want %s", pe.Code, CodeGenerationRateLimited)
	}
}

func TestExecuteSessionNotFound(t *testing.T) {
	provider := &fakeProvider{result: &llm.Result{Content: "unused"}}
	orch := newOrchestrator(provider, &fakeEmbedder{})

	uow := newTestUow()
	uow.sessions.session = nil

	_, err := orch.Execute(context.Background(), uow, testRequest("hello?"))
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PipelineError", err)
	}
	if pe.Code != CodeSessionNotFound {
		t.Errorf("code = %s, want %s", pe.Code, CodeSessionNotFound)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for missing session", provider.calls)
	}
}

func TestExecuteBoundsGenerationByDefault(t *testing.T) {
	if DefaultConfig().GenerationTimeout <= 0 {
		t.Fatal("default generation timeout leaves synthesis unbounded")
	}

	provider := &fakeProvider{result: &llm.Result{Content: "Hello!", Model: "gpt-4o-mini", FinishReason: "stop"}}
	orch := newOrchestrator(provider, &fakeEmbedder{})

	if _, err := orch.Execute(context.Background(), newTestUow(), testRequest("hi")); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !provider.sawDeadline {
		t.Error("generation call carried no deadline")
	}
}

func TestExecuteStreamForwardsDeltas(t *testing.T) {
	provider := &fakeProvider{result: &llm.Result{Content: "streamed reply", Model: "gpt-4o-mini", FinishReason: "stop"}}
	orch := newOrchestrator(provider, &fakeEmbedder{})

	var got strings.Builder
	result, err := orch.ExecuteStream(context.Background(), newTestUow(), testRequest("hi"), func(delta string) error {
		got.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteStream() error = %v", err)
	}
	if got.String() != "streamed reply" {
		t.Errorf("deltas = %q", got.String())
	}
	if result.Content != "streamed reply" {
		t.Errorf("content = %q", result.Content)
	}
}
