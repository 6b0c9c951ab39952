package llm

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures so callers can pick a retry policy.
// Rate limits are retryable after backoff; auth errors are not retryable
// without operator intervention.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindTimeout   Kind = "timeout"
	KindProvider  Kind = "provider"
)

// Error wraps a provider failure with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or KindProvider if err is not
// a classified provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindProvider
}

func IsRateLimit(err error) bool {
	return KindOf(err) == KindRateLimit
}

func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}
