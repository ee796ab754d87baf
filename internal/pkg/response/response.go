package response

import (
	"marketplace-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the error JSON shape shared by every endpoint.
type ErrorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// MessageBody is used by endpoints that only acknowledge an action.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends a 200 OK with data as the body.
func JSON(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// Created sends a 201 Created with data as the body.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Message sends {message} with the given status.
func Message(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(MessageBody{Message: message})
}

// Error sends {error, details?} with the given status.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	body := ErrorBody{Error: message}
	if fe, ok := details.([]apperr.FieldError); ok {
		if len(fe) > 0 {
			body.Details = fe
		}
	} else if details != nil {
		body.Details = details
	}
	return c.Status(statusCode).JSON(body)
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// FromError renders client errors (4xx) directly and hands everything else
// back to the app error handler, which decides how much a 5xx may reveal.
func FromError(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok && e.Status < fiber.StatusInternalServerError {
		return Error(c, e.Message, e.Status, e.Details)
	}
	return err
}
