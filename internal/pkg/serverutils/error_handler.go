package serverutils

import (
	"errors"

	"rag-chat-be/pkg/rag/pipeline"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into
// the JSON envelope with a status matching the failure class.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		code := "internal_error"
		message := "Internal server error"

		var fiberErr *fiber.Error
		var pipeErr *pipeline.PipelineError

		switch {
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
			code = ""
		case errors.As(err, &pipeErr):
			status, message = pipelineStatus(pipeErr)
			code = string(pipeErr.Code)
		}

		return ctx.Status(status).JSON(ErrorResponseWithCode(code, message))
	}
}

func pipelineStatus(err *pipeline.PipelineError) (int, string) {
	switch err.Code {
	case pipeline.CodeSessionNotFound:
		return fiber.StatusNotFound, "Session not found"
	case pipeline.CodeGenerationRateLimited:
		return fiber.StatusTooManyRequests, "Model rate limit hit, retry shortly"
	case pipeline.CodeGenerationAuth:
		return fiber.StatusBadGateway, "Model provider rejected credentials"
	case pipeline.CodeGenerationTimeout:
		return fiber.StatusGatewayTimeout, "Model response timed out"
	default:
		return fiber.StatusBadGateway, "Model generation failed"
	}
}
