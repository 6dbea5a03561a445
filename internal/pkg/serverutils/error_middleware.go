package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-orchestrator-be/internal/metrics"
	"rag-orchestrator-be/internal/pkg/logger"
)

// ErrorHandlerMiddleware converts any uncaught fault into a generic failure
// envelope. No internal detail leaks to the client; fiber.Errors keep their
// status, everything else becomes a 500.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
		}

		metrics.ChatErrorsTotal.Inc()
		log.Error("http", "Unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "Internal Server Error"})
	}
}
