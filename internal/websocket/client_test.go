package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"rag-chat-be/pkg/rag/pipeline"

	"github.com/google/uuid"
)

func TestSendFrameDoesNotBlockOnFullBuffer(t *testing.T) {
	c := &Client{SessionID: uuid.New(), Send: make(chan []byte, 1)}

	c.sendFrame("delta", map[string]string{"content": "first"})
	// Buffer is full now; this must drop instead of blocking the turn.
	c.sendFrame("delta", map[string]string{"content": "second"})

	var frame struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(<-c.Send, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Data["content"] != "first" {
		t.Errorf("buffered frame = %q, want first", frame.Data["content"])
	}

	select {
	case extra := <-c.Send:
		t.Errorf("unexpected extra frame: %s", extra)
	default:
	}
}

func TestErrorCode(t *testing.T) {
	pipeErr := &pipeline.PipelineError{
		Code:  pipeline.CodeGenerationTimeout,
		Stage: "synthesize",
		Err:   errors.New("deadline exceeded"),
	}

	if got := errorCode(pipeErr); got != string(pipeline.CodeGenerationTimeout) {
		t.Errorf("errorCode(pipeline) = %q, want %s", got, pipeline.CodeGenerationTimeout)
	}
	if got := errorCode(errors.New("plain failure")); got != "internal_error" {
		t.Errorf("errorCode(plain) = %q, want internal_error", got)
	}
}
