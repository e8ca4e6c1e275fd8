package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fileshare/internal/auth"
	"fileshare/internal/http/middleware"
	"fileshare/internal/policy"
	"fileshare/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "CONFLICT", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeFieldError(c, status, code, message, "")
}

func writeFieldError(c *fiber.Ctx, status int, code, message, field string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError maps a domain error onto the HTTP error contract. Causes of
// 5xx responses are handed to the access log, never to the client.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *service.ValidationError
		denied     *policy.DeniedError
		partial    *service.PartialDeleteError
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &validation):
		return writeFieldError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", validation.Message, validation.Field)
	case errors.Is(err, service.ErrConflict):
		return writeFieldError(c, fiber.StatusBadRequest, "CONFLICT", "a file with this name already exists", "file")
	case errors.Is(err, service.ErrUsernameTaken):
		return writeFieldError(c, fiber.StatusBadRequest, "CONFLICT", "username already registered", "username")
	case errors.Is(err, service.ErrBodyRequired):
		return writeFieldError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required", "file")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusNotFound, "INVALID_CREDENTIALS", "incorrect username or password")
	case errors.Is(err, auth.ErrAnonymous),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUserNotFound):
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "could not validate credentials")
	case errors.As(err, &denied):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", denied.Reason)
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
	case errors.As(err, &fiberErr):
		return fiberError(c, fiberErr)
	}

	c.Locals(middleware.ErrorLocalKey, err)
	switch {
	case errors.As(err, &partial):
		return writeError(c, fiber.StatusInternalServerError, "PARTIAL_DELETE", "file record deleted but its content could not be removed")
	case errors.Is(err, service.ErrContentMissing):
		return writeError(c, fiber.StatusInternalServerError, "CONTENT_MISSING", "file content is unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func fiberError(c *fiber.Ctx, e *fiber.Error) error {
	switch e.Code {
	case fiber.StatusBadRequest:
		return writeError(c, e.Code, "BAD_REQUEST", "bad request")
	case fiber.StatusNotFound:
		return writeError(c, e.Code, "NOT_FOUND", "resource not found")
	case fiber.StatusMethodNotAllowed:
		return writeError(c, e.Code, "METHOD_NOT_ALLOWED", "method not allowed")
	case fiber.StatusRequestEntityTooLarge:
		return writeError(c, e.Code, "PAYLOAD_TOO_LARGE", "request body too large")
	default:
		if e.Code >= fiber.StatusInternalServerError {
			c.Locals(middleware.ErrorLocalKey, e)
			return writeError(c, e.Code, "INTERNAL_ERROR", "internal server error")
		}
		return writeError(c, e.Code, "BAD_REQUEST", e.Message)
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses, including errors returned by middleware such as RequireUser.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respondError(c, err)
	}
}
