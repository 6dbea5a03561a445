package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"rag-orchestrator-be/internal/pkg/logger"
)

// RequestLoggerMiddleware emits one structured record per /api call so the
// log pipeline can correlate requests with traces and sessions.
func RequestLoggerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !strings.HasPrefix(ctx.Path(), "/api") {
			return ctx.Next()
		}

		start := time.Now()
		requestID := uuid.NewString()
		ctx.Locals("request_id", requestID)

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		details := map[string]interface{}{
			"request_id":  requestID,
			"method":      ctx.Method(),
			"path":        ctx.Path(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client":      ctx.IP(),
		}
		if sid := ctx.Locals("session_id"); sid != nil {
			details["session_id"] = sid
		}
		if chunks := ctx.Locals("chunks_returned"); chunks != nil {
			details["chunks_returned"] = chunks
		}
		if span := trace.SpanFromContext(ctx.UserContext()); span.SpanContext().IsValid() {
			details["trace_id"] = span.SpanContext().TraceID().String()
			details["span_id"] = span.SpanContext().SpanID().String()
		}
		if err != nil {
			details["error"] = err.Error()
		}

		log.Info("http", "api request", details)
		return err
	}
}
