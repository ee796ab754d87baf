package middleware

import (
	"errors"

	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const msgRouteNotFound = "Not Found - API endpoint does not exist or route not handled"

// ErrorHandler renders every error that reaches the app as {error}. Server
// errors are logged; in production only their client-facing message is sent.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		var details interface{}

		var fe *fiber.Error
		if e, ok := apperr.As(err); ok {
			code = e.Status
			message = e.Message
			if len(e.Details) > 0 {
				details = e.Details
			}
			if code >= fiber.StatusInternalServerError && !production {
				message = e.Error()
			}
		} else if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
			if code == fiber.StatusNotFound && message == "Cannot "+c.Method()+" "+c.Path() {
				message = msgRouteNotFound
			}
		} else if !production {
			message = err.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("trace_id", GetTraceID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return response.Error(c, message, code, details)
	}
}

// NotFound is mounted last so unknown routes get the JSON 404.
func NotFound(c *fiber.Ctx) error {
	return response.Error(c, msgRouteNotFound, fiber.StatusNotFound, nil)
}
