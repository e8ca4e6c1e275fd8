package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorLocalKey holds the internal cause of a 5xx response so the access log
// can record it without the response body leaking it.
const ErrorLocalKey = "error_cause"

// Logger logs one line per request with request_id, method, path, status and
// latency, plus trace_id when a span is active. Errors returned by the chain
// are rendered through the app's ErrorHandler first so the logged status is
// the one the client receives.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}
		if cause, ok := c.Locals(ErrorLocalKey).(error); ok && cause != nil {
			fields = append(fields, zap.Error(cause))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
		return nil
	}
}
