package service

import (
	"context"
	"encoding/json"
	"log"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    EventPublisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher EventPublisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage embeds every pending chunk of the document named in the
// payload. Ack/Nack discipline: malformed or stale messages are acked so
// they do not loop forever, transient failures are nacked for retry.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Embedding chunks for document %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if document == nil {
		// Deleted between upload and processing.
		log.Printf("[WARN] Document %s no longer exists, skipping", payload.DocumentId)
		msg.Ack()
		return
	}

	pending, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: payload.DocumentId},
		specification.MissingEmbedding{},
		specification.OrderBy{Field: "chunk_index", Desc: false},
	)
	if err != nil {
		log.Printf("[ERROR] Failed to load chunks for document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if len(pending) == 0 {
		log.Printf("[INFO] Document %s already embedded", payload.DocumentId)
		msg.Ack()
		return
	}

	for _, chunk := range pending {
		vector, err := cs.embeddingProvider.Embed(ctx, chunk.Text)
		if err != nil {
			log.Printf("[ERROR] Failed to embed chunk %d of document %s: %v", chunk.ChunkIndex, payload.DocumentId, err)
			msg.Nack()
			return
		}
		chunk.Embedding = vector
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	for _, chunk := range pending {
		if err := uow.DocumentChunkRepository().Update(ctx, chunk); err != nil {
			log.Printf("[ERROR] Failed to store embedding for chunk %d: %v", chunk.ChunkIndex, err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit embeddings: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Embedded %d chunks for document %s", len(pending), payload.DocumentId)

	if cs.eventPublisher != nil {
		evt := events.New(events.TypeDocumentIngested, map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"filename":    document.Filename,
			"chunk_count": len(pending),
		})
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish ingestion event: %v", err)
		}
	}

	msg.Ack()
}
