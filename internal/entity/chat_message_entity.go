package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	TokenCount    int
	// Metadata carries per-turn diagnostics such as retrieval usage,
	// source counts and degradation notes.
	Metadata  map[string]interface{}
	CreatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
