package service

import (
	"testing"

	"rag-chat-be/internal/entity"
	"rag-chat-be/pkg/rag/retrieval"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrievedChunkResponses(t *testing.T) {
	chunkId := uuid.New()
	documentId := uuid.New()
	ranked := []retrieval.ScoredChunk{
		{
			Score: 0.87,
			Chunk: &entity.DocumentChunk{
				Id:               chunkId,
				DocumentId:       documentId,
				DocumentFilename: "notes.txt",
				ChunkIndex:       2,
				Text:             "gradient descent minimizes loss",
			},
		},
	}

	got := retrievedChunkResponses(ranked)
	require.Len(t, got, 1)
	assert.Equal(t, chunkId, got[0].ChunkId)
	assert.Equal(t, documentId, got[0].DocumentId)
	assert.Equal(t, "notes.txt", got[0].Document)
	assert.Equal(t, 2, got[0].ChunkIndex)
	assert.Equal(t, "gradient descent minimizes loss", got[0].Text)
	assert.Equal(t, 0.87, got[0].Score)
}

func TestRetrievedChunkResponsesEmpty(t *testing.T) {
	// A turn without retrieval still serializes as [] rather than null.
	got := retrievedChunkResponses(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "What is MMR?", titleFrom("  What is MMR?  "))
	assert.Equal(t, defaultSessionTitle, titleFrom("   "))

	long := titleFrom("this question goes on and on well past the fifty character cutoff")
	assert.Len(t, long, 53)
	assert.Equal(t, "...", long[50:])
}
