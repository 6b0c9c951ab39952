package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/events"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/pipeline"
	"rag-chat-be/pkg/rag/retrieval"
	"rag-chat-be/pkg/tokenizer"

	"github.com/google/uuid"
)

const defaultSessionTitle = "New conversation"

// EventPublisher mirrors committed domain activity to the event bus.
// A nil publisher disables mirroring.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	SendChatStream(ctx context.Context, request *dto.SendChatRequest, onDelta func(delta string) error) (*dto.SendChatResponse, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

type chatService struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *pipeline.Orchestrator
	counter      tokenizer.TokenCounter
	publisher    EventPublisher
	defaults     RetrievalDefaults
	defaultModel string
	llmLogger    *log.Logger
}

// RetrievalDefaults are applied when a request leaves the knobs unset.
type RetrievalDefaults struct {
	TopK   int
	UseMMR bool
	Lambda float64
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *pipeline.Orchestrator,
	counter tokenizer.TokenCounter,
	publisher EventPublisher,
	defaults RetrievalDefaults,
	defaultModel string,
	llmLogger *log.Logger,
) IChatService {
	return &chatService{
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		counter:      counter,
		publisher:    publisher,
		defaults:     defaults,
		defaultModel: defaultModel,
		llmLogger:    llmLogger,
	}
}

// InitLLMLogger opens the trace log the pipeline components write to.
func InitLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	chatSession := &entity.ChatSession{
		Id:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, chatSession); err != nil {
		return nil, err
	}

	cs.publish(ctx, events.TypeSessionCreated, map[string]interface{}{
		"session_id": chatSession.Id.String(),
		"title":      chatSession.Title,
	})

	return &dto.CreateSessionResponse{Id: chatSession.Id, Title: chatSession.Title}, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, sessionNotFound(sessionId)
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Metadata:  msg.Metadata,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat runs one conversation turn and persists both sides of it.
func (cs *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	return cs.sendChat(ctx, request, nil)
}

// SendChatStream is SendChat with response deltas forwarded as they
// arrive. Persistence still happens once the full reply is known.
func (cs *chatService) SendChatStream(ctx context.Context, request *dto.SendChatRequest, onDelta func(delta string) error) (*dto.SendChatResponse, error) {
	return cs.sendChat(ctx, request, onDelta)
}

func (cs *chatService) sendChat(ctx context.Context, request *dto.SendChatRequest, onDelta func(delta string) error) (*dto.SendChatResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	chatSession, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: request.ChatSessionId})
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, sessionNotFound(request.ChatSessionId)
	}

	model := request.Model
	if model == "" {
		model = cs.defaultModel
	}

	existingCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: request.ChatSessionId},
	)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	// The user turn is stored inside the same transaction so a failed
	// generation leaves no half-written conversation behind.
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: request.ChatSessionId,
		Role:          constant.RoleUser,
		Content:       request.Message,
		TokenCount:    cs.counter.Count(request.Message, model),
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	pipeReq := pipelineRequest(request, model, cs.defaults)
	var result *pipeline.TurnResult
	if onDelta != nil {
		result, err = cs.orchestrator.ExecuteStream(ctx, uow, pipeReq, onDelta)
	} else {
		result, err = cs.orchestrator.Execute(ctx, uow, pipeReq)
	}
	if err != nil {
		return nil, err
	}

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: request.ChatSessionId,
		Role:          constant.RoleAssistant,
		Content:       result.Content,
		TokenCount:    result.Metadata.TokensUsed,
		Metadata:      result.Metadata.ToMap(),
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	// First turn names the session after the opening question.
	if existingCount == 0 && chatSession.Title == defaultSessionTitle {
		chatSession.Title = titleFrom(request.Message)
		updatedAt := time.Now()
		chatSession.UpdatedAt = &updatedAt
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.publish(ctx, events.TypeChatTurnComplete, map[string]interface{}{
		"session_id":      chatSession.Id.String(),
		"message_id":      assistantMessage.Id.String(),
		"tokens_used":     result.Metadata.TokensUsed,
		"retrieval_count": result.Metadata.RetrievalCount,
	})

	return &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Role:      userMessage.Role,
			Content:   userMessage.Content,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        assistantMessage.Id,
			Role:      assistantMessage.Role,
			Content:   assistantMessage.Content,
			Metadata:  assistantMessage.Metadata,
			CreatedAt: assistantMessage.CreatedAt,
		},
		Retrieved: retrievedChunkResponses(result.Retrieved),
	}, nil
}

func (cs *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if sess == nil {
		return sessionNotFound(sessionId)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.publish(ctx, events.TypeSessionDeleted, map[string]interface{}{
		"session_id": sessionId.String(),
	})

	return nil
}

func (cs *chatService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if cs.publisher == nil {
		return
	}
	if err := cs.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		cs.llmLogger.Printf("[EVENTS] Publish %s failed: %v", eventType, err)
	}
}

func pipelineRequest(request *dto.SendChatRequest, model string, defaults RetrievalDefaults) pipeline.Request {
	cfg := retrieval.Config{
		TopK:   defaults.TopK,
		UseMMR: defaults.UseMMR,
		Lambda: defaults.Lambda,
	}
	if request.TopK > 0 {
		cfg.TopK = request.TopK
	}
	if request.UseMMR != nil {
		cfg.UseMMR = *request.UseMMR
	}
	if request.Lambda != nil {
		cfg.Lambda = *request.Lambda
	}
	return pipeline.Request{
		SessionID:   request.ChatSessionId,
		UserMessage: request.Message,
		Model:       model,
		Retrieval:   cfg,
	}
}

func titleFrom(message string) string {
	title := strings.TrimSpace(message)
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	if title == "" {
		return defaultSessionTitle
	}
	return title
}

// retrievedChunkResponses renders ranked chunks for a response payload.
// A turn without retrieval yields an empty slice, not null.
func retrievedChunkResponses(ranked []retrieval.ScoredChunk) []*dto.RetrievedChunkResponse {
	response := make([]*dto.RetrievedChunkResponse, 0, len(ranked))
	for _, sc := range ranked {
		response = append(response, &dto.RetrievedChunkResponse{
			ChunkId:    sc.Chunk.Id,
			DocumentId: sc.Chunk.DocumentId,
			Document:   sc.Chunk.DocumentFilename,
			ChunkIndex: sc.Chunk.ChunkIndex,
			Text:       sc.Chunk.Text,
			Score:      sc.Score,
		})
	}
	return response
}

func sessionNotFound(sessionId uuid.UUID) error {
	return &pipeline.PipelineError{
		Code:  pipeline.CodeSessionNotFound,
		Stage: "session_lookup",
		Err:   fmt.Errorf("%w: %s", history.ErrSessionNotFound, sessionId),
	}
}
