package mapper

import (
	"testing"
	"time"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestChatSessionRoundTrip(t *testing.T) {
	m := NewChatMapper()

	summary := "talked about pgvector indexes"
	now := time.Now()
	src := &entity.ChatSession{
		Id:              uuid.New(),
		Title:           "Vector search",
		LongTermSummary: &summary,
		CreatedAt:       now,
	}

	got := m.ChatSessionToEntity(m.ChatSessionToModel(src))
	require.NotNil(t, got)
	assert.Equal(t, src.Id, got.Id)
	assert.Equal(t, src.Title, got.Title)
	require.NotNil(t, got.LongTermSummary)
	assert.Equal(t, summary, *got.LongTermSummary)
	assert.False(t, got.IsDeleted)
}

func TestChatSessionDeletedAtMapping(t *testing.T) {
	m := NewChatMapper()

	deleted := time.Now().Add(-time.Hour)
	src := &model.ChatSession{
		Id:        uuid.New(),
		Title:     "Old session",
		DeletedAt: gorm.DeletedAt{Time: deleted, Valid: true},
	}

	got := m.ChatSessionToEntity(src)
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)
	assert.Equal(t, deleted, *got.DeletedAt)
}

func TestChatMessageMetadataRoundTrip(t *testing.T) {
	m := NewChatMapper()

	src := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          "assistant",
		Content:       "PostgreSQL stores vectors in a dedicated column type.",
		TokenCount:    12,
		Metadata: map[string]interface{}{
			"model":           "gpt-4o-mini",
			"retrieval_count": float64(3),
		},
	}

	got := m.ChatMessageToEntity(m.ChatMessageToModel(src))
	require.NotNil(t, got)
	assert.Equal(t, src.Role, got.Role)
	assert.Equal(t, src.TokenCount, got.TokenCount)
	assert.Equal(t, "gpt-4o-mini", got.Metadata["model"])
	assert.Equal(t, float64(3), got.Metadata["retrieval_count"])
}

func TestChatMessageMalformedMetadataTolerated(t *testing.T) {
	m := NewChatMapper()

	src := &model.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: uuid.New(),
		Role:          "user",
		Content:       "hello",
		Metadata:      datatypes.JSON([]byte("{not json")),
	}

	got := m.ChatMessageToEntity(src)
	require.NotNil(t, got)
	assert.Nil(t, got.Metadata)
	assert.Equal(t, "hello", got.Content)
}

func TestChatMessagesToEntitiesPreservesOrder(t *testing.T) {
	m := NewChatMapper()

	first := &model.ChatMessage{Id: uuid.New(), Role: "user", Content: "first"}
	second := &model.ChatMessage{Id: uuid.New(), Role: "assistant", Content: "second"}

	got := m.ChatMessagesToEntities([]*model.ChatMessage{first, second})
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
}
