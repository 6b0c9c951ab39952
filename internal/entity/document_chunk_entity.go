package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Text       string
	// Embedding is nil until the ingestion worker has processed the chunk.
	Embedding []float32
	// DocumentFilename is populated by repository reads that join the
	// parent document. It is not a persisted column of the chunk itself.
	DocumentFilename string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
