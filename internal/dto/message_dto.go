package dto

import "github.com/google/uuid"

// PublishEmbedDocumentMessage is the payload queued for the embedding
// worker after a document upload.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
