package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id    uuid.UUID
	Title string
	// LongTermSummary condenses turns older than the last summarization
	// checkpoint. Nil until the first summary is generated.
	LongTermSummary *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	DeletedAt       *time.Time
	IsDeleted       bool
}
