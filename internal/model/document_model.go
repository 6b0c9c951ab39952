package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Filename      string         `gorm:"type:varchar(255);not null"`
	RawText       string         `gorm:"type:text"`
	FileSize      int64          `gorm:"default:0"`
	ChatSessionId *uuid.UUID     `gorm:"type:uuid;index"` // nil scopes the document globally
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
