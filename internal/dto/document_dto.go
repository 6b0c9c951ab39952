package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type GetDocumentResponse struct {
	Id            uuid.UUID  `json:"id"`
	Filename      string     `json:"filename"`
	FileSize      int64      `json:"file_size"`
	ChatSessionId *uuid.UUID `json:"chat_session_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type DocumentChunkResponse struct {
	Id           uuid.UUID `json:"id"`
	ChunkIndex   int       `json:"chunk_index"`
	Text         string    `json:"text"`
	HasEmbedding bool      `json:"has_embedding"`
}

// RetrieveRequest drives the standalone retrieval endpoint used to
// inspect what the pipeline would pull for a query.
type RetrieveRequest struct {
	Query         string      `json:"query" validate:"required"`
	TopK          int         `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
	UseMMR        *bool       `json:"use_mmr,omitempty"`
	Lambda        *float64    `json:"lambda,omitempty" validate:"omitempty,min=0,max=1"`
	DocumentIds   []uuid.UUID `json:"document_ids,omitempty"`
	ChatSessionId *uuid.UUID  `json:"chat_session_id,omitempty"`
}

type RetrievedChunkResponse struct {
	ChunkId    uuid.UUID `json:"chunk_id"`
	DocumentId uuid.UUID `json:"document_id"`
	Document   string    `json:"document"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
}
