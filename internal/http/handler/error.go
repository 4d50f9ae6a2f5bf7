package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/http/middleware"
	"dossierapi/internal/lifecycle"
	"dossierapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

func writeValidationError(c *fiber.Ctx, verr *service.ValidationError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_FAILED",
			Message: "The given data was invalid.",
			Fields:  verr.Fields,
		},
	})
}

// writeServiceError maps service and domain errors to the error envelope.
// Unknown errors are logged and reported as 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	var (
		verr *service.ValidationError
		terr *lifecycle.TransitionError
	)
	switch {
	case errors.As(err, &verr):
		return writeValidationError(c, verr)
	case errors.As(err, &terr):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION",
			"Cannot change status from "+terr.From.Label()+" to "+terr.To.Label()+".")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "unauthenticated")
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		slog.String("component", "http"),
		slog.String("request_id", middleware.RequestIDFromCtx(c)),
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHENTICATED", "unauthenticated")
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", "this token is not allowed to perform this action")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			if fe == nil {
				return writeServiceError(c, err)
			}
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
