// Package pipeline orchestrates a conversation turn: load history,
// decide on retrieval, search the knowledge base, synthesize a reply
// and refresh the session summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/decision"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/rag/retrieval"
	"rag-chat-be/pkg/rag/summary"
)

type Config struct {
	MaxContextTokens int
	MinTurns         int
	Temperature      float64
	MaxOutputTokens  int
	// CandidatePool is how many nearest chunks the vector index hands to
	// the in-process re-ranker.
	CandidatePool int
	// GenerationTimeout bounds the synthesis call. Zero means no bound
	// beyond the caller's context.
	GenerationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxContextTokens:  3000,
		MinTurns:          6,
		Temperature:       0.7,
		MaxOutputTokens:   2000,
		CandidatePool:     200,
		GenerationTimeout: 60 * time.Second,
	}
}

type Orchestrator struct {
	config   Config
	loader   *history.Loader
	embedder embedding.EmbeddingProvider
	provider llm.LLMProvider
	updater  *summary.Updater
	logger   *log.Logger
}

func NewOrchestrator(
	config Config,
	loader *history.Loader,
	embedder embedding.EmbeddingProvider,
	provider llm.LLMProvider,
	updater *summary.Updater,
	logger *log.Logger,
) *Orchestrator {
	if config.CandidatePool <= 0 {
		config.CandidatePool = 200
	}
	return &Orchestrator{
		config:   config,
		loader:   loader,
		embedder: embedder,
		provider: provider,
		updater:  updater,
		logger:   logger,
	}
}

// Execute runs one full turn and returns the assistant reply. Retrieval
// failures degrade to answering without context; generation failures
// abort the turn with a classified PipelineError.
func (o *Orchestrator) Execute(ctx context.Context, uow unitofwork.UnitOfWork, req Request) (*TurnResult, error) {
	return o.run(ctx, uow, req, nil)
}

// ExecuteStream behaves like Execute but forwards response deltas to
// onDelta as they arrive.
func (o *Orchestrator) ExecuteStream(ctx context.Context, uow unitofwork.UnitOfWork, req Request, onDelta func(delta string) error) (*TurnResult, error) {
	return o.run(ctx, uow, req, onDelta)
}

func (o *Orchestrator) run(ctx context.Context, uow unitofwork.UnitOfWork, req Request, onDelta func(delta string) error) (*TurnResult, error) {
	state := &State{
		SessionID:   req.SessionID,
		UserMessage: req.UserMessage,
		Model:       req.Model,
	}

	if err := o.loadHistory(ctx, uow, state); err != nil {
		return nil, err
	}
	o.decideRetrieve(state)
	if state.NeedRetrieval {
		o.retrieve(ctx, uow, state, req.Retrieval)
	} else {
		o.logger.Printf("[PIPELINE] Skipping retrieval for session %s", state.SessionID)
	}
	if err := o.synthesize(ctx, state, onDelta); err != nil {
		return nil, err
	}
	o.updater.MaybeUpdate(ctx, uow, state.SessionID, state.Model)

	return &TurnResult{Content: state.Draft, Retrieved: state.Retrieved, Metadata: state.Metadata}, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, state *State) error {
	loaded, sessionSummary, err := o.loader.Load(ctx, uow, state.SessionID, state.Model, o.config.MaxContextTokens, o.config.MinTurns)
	if err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			return newPipelineError(CodeSessionNotFound, "load_history", err)
		}
		return fmt.Errorf("load history: %w", err)
	}
	state.History = loaded
	state.Summary = sessionSummary
	o.logger.Printf("[PIPELINE] Loaded %d messages for session %s", len(loaded), state.SessionID)
	return nil
}

func (o *Orchestrator) decideRetrieve(state *State) {
	state.NeedRetrieval = decision.NeedsRetrieval(state.UserMessage)
	o.logger.Printf("[PIPELINE] need_retrieval=%v for message: %s", state.NeedRetrieval, truncate(state.UserMessage, 50))
}

// retrieve embeds the query, shortlists candidates on the vector index
// and re-ranks them in process. Any failure leaves the turn without
// context and annotates the metadata instead of aborting.
func (o *Orchestrator) retrieve(ctx context.Context, uow unitofwork.UnitOfWork, state *State, cfg retrieval.Config) {
	queryVec, err := o.embedder.Embed(ctx, state.UserMessage)
	if err != nil {
		o.logger.Printf("[PIPELINE] Query embedding failed: %v", err)
		state.Metadata.RetrievalError = fmt.Sprintf("embedding failed: %v", err)
		return
	}

	sessionID := state.SessionID
	candidates, err := uow.DocumentChunkRepository().SearchSimilar(ctx, queryVec, o.config.CandidatePool, contract.ChunkFilter{
		SessionID: &sessionID,
	})
	if err != nil {
		o.logger.Printf("[PIPELINE] Candidate search failed: %v", err)
		state.Metadata.RetrievalError = fmt.Sprintf("search failed: %v", err)
		return
	}

	ranked, err := retrieval.NewEngine(cfg).Rank(queryVec, candidates)
	if err != nil {
		o.logger.Printf("[PIPELINE] Ranking failed: %v", err)
		state.Metadata.RetrievalError = fmt.Sprintf("ranking failed: %v", err)
		return
	}

	state.Retrieved = ranked
	o.logger.Printf("[PIPELINE] Retrieved %d chunks", len(ranked))
}

func (o *Orchestrator) synthesize(ctx context.Context, state *State, onDelta func(delta string) error) error {
	messages := prompt.Assemble(state.UserMessage, state.Retrieved, state.History, state.Summary)

	if o.config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.GenerationTimeout)
		defer cancel()
	}

	opts := []llm.Option{
		llm.WithModel(state.Model),
		llm.WithTemperature(o.config.Temperature),
		llm.WithMaxTokens(o.config.MaxOutputTokens),
	}

	var result *llm.Result
	var err error
	if onDelta != nil {
		result, err = o.provider.ChatStream(ctx, messages, onDelta, opts...)
	} else {
		result, err = o.provider.Chat(ctx, messages, opts...)
	}
	if err != nil {
		o.logger.Printf("[PIPELINE] Generation failed: %v", err)
		return newPipelineError(classifyGeneration(err), "synthesize", err)
	}

	state.Draft = result.Content
	state.Metadata.TokensUsed = result.TokensUsed
	state.Metadata.Model = result.Model
	state.Metadata.FinishReason = result.FinishReason
	state.Metadata.RetrievalCount = len(state.Retrieved)
	state.Metadata.ContextMessages = len(state.History)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
