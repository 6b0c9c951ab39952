package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id       uuid.UUID
	Filename string
	RawText  string
	FileSize int64
	// ChatSessionId scopes the document to a single session when set.
	// Nil means the document is visible to every session.
	ChatSessionId *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
