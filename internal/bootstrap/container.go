package bootstrap

import (
	"context"
	"log"
	"time"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/controller"
	"rag-chat-be/internal/handler"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/internal/service"
	"rag-chat-be/internal/websocket"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/events"
	"rag-chat-be/pkg/llm/factory"
	pktNats "rag-chat-be/pkg/nats"
	"rag-chat-be/pkg/rag/history"
	"rag-chat-be/pkg/rag/pipeline"
	"rag-chat-be/pkg/rag/summary"
	"rag-chat-be/pkg/tokenizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus (in-process, carries embedding jobs)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}
	// Repeat queries hit the cache instead of the embedding API
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, 15*time.Minute)

	llmBaseURL := cfg.Ai.OpenAIBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIAPIKey,
		llmBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS is optional, events stay in-process without it
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventPublisher = natsPub
		}
	}

	// Redis backs the websocket hub fan-out
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	var hubRedis *redis.Client
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (hub runs single-node)", err)
	} else {
		hubRedis = rdb
	}

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(hubRedis, wsLogger)
	go wsHub.Run()

	// 5. RAG pipeline
	llmLogger := service.InitLLMLogger()
	counter := tokenizer.NewTiktokenCounter()
	loader := history.NewLoader(counter)
	updater := summary.NewUpdater(llmProvider, llmLogger)
	if eventPublisher != nil {
		updater.OnUpdated = func(ctx context.Context, sessionID uuid.UUID, summaryText string) {
			event := events.New(events.TypeSummaryUpdated, map[string]interface{}{
				"chat_session_id": sessionID.String(),
				"summary":         summaryText,
			})
			if err := eventPublisher.Publish(ctx, event); err != nil {
				llmLogger.Printf("[EVENTS] Publish %s failed: %v", events.TypeSummaryUpdated, err)
			}
		}
	}

	pipelineConfig := pipeline.DefaultConfig()
	pipelineConfig.MaxContextTokens = cfg.Memory.MaxTokensContext
	pipelineConfig.MinTurns = cfg.Memory.HistoryMinTurns
	pipelineConfig.CandidatePool = cfg.Rag.CandidatePool
	if cfg.Ai.GenerationTimeoutSeconds > 0 {
		pipelineConfig.GenerationTimeout = time.Duration(cfg.Ai.GenerationTimeoutSeconds) * time.Second
	}

	orchestrator := pipeline.NewOrchestrator(
		pipelineConfig,
		loader,
		embeddingProvider,
		llmProvider,
		updater,
		llmLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, constant.EmbedDocumentTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.EmbedDocumentTopic,
		uowFactory,
		embeddingProvider,
		eventPublisher,
	)

	chatService := service.NewChatService(
		uowFactory,
		orchestrator,
		counter,
		eventPublisher,
		service.RetrievalDefaults{
			TopK:   cfg.Rag.TopK,
			UseMMR: cfg.Rag.UseMMR,
			Lambda: cfg.Rag.Lambda,
		},
		cfg.Ai.LLMModel,
		llmLogger,
	)
	documentService := service.NewDocumentService(
		uowFactory,
		publisherService,
		embeddingProvider,
		cfg.Rag.ChunkSize,
		cfg.Rag.CandidatePool,
	)

	streamHandler := handler.NewStreamHandler(wsHub, chatService, wsLogger)

	sysLogger.Info("Bootstrap", "Container initialized", nil)

	// 7. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),
		ConsumerService:    consumerService,
		StreamHandler:      streamHandler,
		WebSocketHub:       wsHub,
	}
}
