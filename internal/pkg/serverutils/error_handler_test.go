package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"rag-chat-be/pkg/rag/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorApp(err error) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return err
	})
	return app
}

func envelopeFor(t *testing.T, app *fiber.App) (int, Response[any]) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope Response[any]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return resp.StatusCode, envelope
}

func TestErrorHandlerPipelineCodes(t *testing.T) {
	tests := []struct {
		name       string
		code       pipeline.Code
		wantStatus int
	}{
		{"session not found", pipeline.CodeSessionNotFound, fiber.StatusNotFound},
		{"rate limited", pipeline.CodeGenerationRateLimited, fiber.StatusTooManyRequests},
		{"auth rejected", pipeline.CodeGenerationAuth, fiber.StatusBadGateway},
		{"timed out", pipeline.CodeGenerationTimeout, fiber.StatusGatewayTimeout},
		{"generation failed", pipeline.CodeGenerationFailed, fiber.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := errorApp(&pipeline.PipelineError{
				Code:  tt.code,
				Stage: "synthesize",
				Err:   errors.New("upstream failure"),
			})

			status, envelope := envelopeFor(t, app)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, envelope.Success)
			// Clients branch on the code, so it must survive the envelope
			// even when two failure classes share a status.
			assert.Equal(t, string(tt.code), envelope.Code)
			assert.NotEmpty(t, envelope.Message)
		})
	}
}

func TestErrorHandlerUnknownError(t *testing.T) {
	app := errorApp(errors.New("something broke"))

	status, envelope := envelopeFor(t, app)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", envelope.Code)
	assert.Equal(t, "Internal server error", envelope.Message)
}
