package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/rag/retrieval"
	"rag-chat-be/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, filename string, content []byte, chatSessionId *uuid.UUID) (*dto.UploadDocumentResponse, error)
	GetAll(ctx context.Context) ([]*dto.GetDocumentResponse, error)
	GetChunks(ctx context.Context, documentId uuid.UUID) ([]*dto.DocumentChunkResponse, error)
	Delete(ctx context.Context, documentId uuid.UUID) error
	Retrieve(ctx context.Context, request *dto.RetrieveRequest) ([]*dto.RetrievedChunkResponse, error)
}

type documentService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	chunkSize         int
	candidatePool     int
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	chunkSize int,
	candidatePool int,
) IDocumentService {
	if chunkSize <= 0 {
		chunkSize = constant.DefaultChunkSize
	}
	if candidatePool <= 0 {
		candidatePool = 200
	}
	return &documentService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		chunkSize:         chunkSize,
		candidatePool:     candidatePool,
	}
}

// Upload stores the document and its chunks, then queues the embedding
// work. Chunks stay searchable only once the worker has embedded them.
func (ds *documentService) Upload(ctx context.Context, filename string, content []byte, chatSessionId *uuid.UUID) (*dto.UploadDocumentResponse, error) {
	if len(content) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file is empty")
	}
	if len(content) > constant.MaxUploadBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds the 10MB limit")
	}
	if !utf8.Valid(content) {
		return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "file must be valid UTF-8 text")
	}

	rawText := string(content)
	chunkTexts := utils.ChunkText(rawText, ds.chunkSize)
	if len(chunkTexts) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file contains no usable text")
	}

	uow := ds.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	document := &entity.Document{
		Id:            uuid.New(),
		Filename:      filename,
		RawText:       rawText,
		FileSize:      int64(len(content)),
		ChatSessionId: chatSessionId,
		CreatedAt:     now,
	}
	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return nil, err
	}

	chunks := make([]*entity.DocumentChunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: document.Id,
			ChunkIndex: i,
			Text:       text,
			CreatedAt:  now,
		}
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: document.Id})
	if err != nil {
		return nil, err
	}
	if err := ds.publisherService.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("queue embedding work: %w", err)
	}

	return &dto.UploadDocumentResponse{
		Id:         document.Id,
		Filename:   document.Filename,
		FileSize:   document.FileSize,
		ChunkCount: len(chunks),
		CreatedAt:  document.CreatedAt,
	}, nil
}

func (ds *documentService) GetAll(ctx context.Context) ([]*dto.GetDocumentResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetDocumentResponse, 0, len(documents))
	for _, d := range documents {
		response = append(response, &dto.GetDocumentResponse{
			Id:            d.Id,
			Filename:      d.Filename,
			FileSize:      d.FileSize,
			ChatSessionId: d.ChatSessionId,
			CreatedAt:     d.CreatedAt,
		})
	}
	return response, nil
}

func (ds *documentService) GetChunks(ctx context.Context, documentId uuid.UUID) ([]*dto.DocumentChunkResponse, error) {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	chunks, err := uow.DocumentChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: documentId},
		specification.OrderBy{Field: "chunk_index", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.DocumentChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		response = append(response, &dto.DocumentChunkResponse{
			Id:           c.Id,
			ChunkIndex:   c.ChunkIndex,
			Text:         c.Text,
			HasEmbedding: len(c.Embedding) > 0,
		})
	}
	return response, nil
}

func (ds *documentService) Delete(ctx context.Context, documentId uuid.UUID) error {
	uow := ds.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return err
	}
	if document == nil {
		return fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}

	return uow.Commit()
}

// Retrieve exposes the pipeline's retrieval step directly, which is
// handy for tuning top_k and lambda against a corpus.
func (ds *documentService) Retrieve(ctx context.Context, request *dto.RetrieveRequest) ([]*dto.RetrievedChunkResponse, error) {
	queryVec, err := ds.embeddingProvider.Embed(ctx, request.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := ds.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.DocumentChunkRepository().SearchSimilar(ctx, queryVec, ds.candidatePool, contract.ChunkFilter{
		DocumentIDs: request.DocumentIds,
		SessionID:   request.ChatSessionId,
	})
	if err != nil {
		return nil, err
	}

	cfg := retrieval.DefaultConfig()
	if request.TopK > 0 {
		cfg.TopK = request.TopK
	}
	if request.UseMMR != nil {
		cfg.UseMMR = *request.UseMMR
	}
	if request.Lambda != nil {
		cfg.Lambda = *request.Lambda
	}

	ranked, err := retrieval.NewEngine(cfg).Rank(queryVec, candidates)
	if err != nil {
		return nil, err
	}

	return retrievedChunkResponses(ranked), nil
}
