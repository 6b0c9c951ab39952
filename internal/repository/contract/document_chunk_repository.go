package contract

import (
	"context"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChunkFilter narrows similarity searches to a corpus slice. A nil or
// zero-valued filter matches every embedded chunk.
type ChunkFilter struct {
	DocumentIDs []uuid.UUID
	// SessionID limits results to documents scoped to this session plus
	// globally visible documents.
	SessionID *uuid.UUID
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	Update(ctx context.Context, chunk *entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DocumentChunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the closest embedded chunks to the query
	// vector in distance order, joined with their document filename.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, filter ChunkFilter) ([]*entity.DocumentChunk, error)
}
