package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title,omitempty" validate:"max=255"`
}

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Message       string    `json:"message" validate:"required"`
	Model         string    `json:"model,omitempty"`
	TopK          int       `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
	UseMMR        *bool     `json:"use_mmr,omitempty"`
	Lambda        *float64  `json:"lambda,omitempty" validate:"omitempty,min=0,max=1"`
}

type SendChatResponseChat struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID                 `json:"chat_session_id"`
	ChatSessionTitle string                    `json:"title"`
	Sent             *SendChatResponseChat     `json:"sent"`
	Reply            *SendChatResponseChat     `json:"reply"`
	Retrieved        []*RetrievedChunkResponse `json:"retrieved"`
}
