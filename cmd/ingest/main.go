package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/internal/service"
	"rag-chat-be/pkg/database"
	"rag-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/fatih/color"
)

// Bulk-loads text files into the knowledge base and waits until every
// chunk has an embedding. Usage: ingest <file> [file...]
func main() {
	if len(os.Args) < 2 {
		color.Red("Usage: %s <file> [file...]", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)

	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	publisherService := service.NewPublisherService(pubSub, constant.EmbedDocumentTopic)
	consumerService := service.NewConsumerService(pubSub, constant.EmbedDocumentTopic, uowFactory, embeddingProvider, nil)
	documentService := service.NewDocumentService(uowFactory, publisherService, embeddingProvider, cfg.Rag.ChunkSize, cfg.Rag.CandidatePool)

	ctx := context.Background()
	go func() {
		if err := consumerService.Consume(ctx); err != nil {
			color.Red("Consumer error: %v", err)
		}
	}()

	color.Cyan("Ingesting %d file(s)\n", len(os.Args)-1)

	for _, path := range os.Args[1:] {
		content, err := os.ReadFile(path)
		if err != nil {
			color.Red("  %s: %v", path, err)
			os.Exit(1)
		}

		resp, err := documentService.Upload(ctx, filepath.Base(path), content, nil)
		if err != nil {
			color.Red("  %s: %v", path, err)
			os.Exit(1)
		}
		color.Green("  %s -> %s (%d chunks)", path, resp.Id, resp.ChunkCount)
	}

	color.Yellow("\nWaiting for embeddings...")
	if err := waitForEmbeddings(ctx, uowFactory); err != nil {
		color.Red("Embedding wait failed: %v", err)
		os.Exit(1)
	}
	color.Green("Done. All chunks embedded.")
}

func waitForEmbeddings(ctx context.Context, uowFactory unitofwork.RepositoryFactory) error {
	deadline := time.Now().Add(5 * time.Minute)
	for {
		uow := uowFactory.NewUnitOfWork(ctx)
		pending, err := uow.DocumentChunkRepository().Count(ctx, specification.MissingEmbedding{})
		if err != nil {
			return err
		}
		if pending == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out with %d chunks still pending", pending)
		}
		fmt.Printf("  %d chunks pending\n", pending)
		time.Sleep(2 * time.Second)
	}
}
