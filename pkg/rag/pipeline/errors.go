package pipeline

import (
	"fmt"

	"rag-chat-be/pkg/llm"
)

// Code identifies a terminal pipeline failure class.
type Code string

const (
	CodeSessionNotFound       Code = "session_not_found"
	CodeGenerationFailed      Code = "generation_failed"
	CodeGenerationRateLimited Code = "generation_rate_limited"
	CodeGenerationAuth        Code = "generation_auth"
	CodeGenerationTimeout     Code = "generation_timeout"
)

// PipelineError wraps a stage failure that aborts the turn.
type PipelineError struct {
	Code  Code
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %s: %v", e.Stage, e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func newPipelineError(code Code, stage string, err error) *PipelineError {
	return &PipelineError{Code: code, Stage: stage, Err: err}
}

// classifyGeneration maps provider error kinds to pipeline codes.
func classifyGeneration(err error) Code {
	switch llm.KindOf(err) {
	case llm.KindAuth:
		return CodeGenerationAuth
	case llm.KindRateLimit:
		return CodeGenerationRateLimited
	case llm.KindTimeout:
		return CodeGenerationTimeout
	default:
		return CodeGenerationFailed
	}
}
