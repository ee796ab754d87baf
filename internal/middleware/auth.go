package middleware

import (
	"context"
	"strings"

	authsvc "marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userIDLocal = "userId"

// TokenVerifier checks a bearer token. *auth.TokenService implements it.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*authsvc.Claims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's id in Locals.
func RequireAuth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return response.Unauthorized(c, "Authentication required")
		}
		claims, err := tokens.Verify(c.UserContext(), token)
		if err != nil {
			if authsvc.IsInvalid(err) {
				return response.Unauthorized(c, authsvc.ErrInvalidToken.Error())
			}
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("token verification failed")
			return fiber.NewError(fiber.StatusInternalServerError, "Authentication failed")
		}
		c.Locals(userIDLocal, claims.UserID)
		return c.Next()
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// UserID returns the authenticated caller ("" outside RequireAuth).
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(userIDLocal).(string); ok {
		return id
	}
	return ""
}

// SetUserID is used by tests that bypass RequireAuth.
func SetUserID(c *fiber.Ctx, id string) {
	c.Locals(userIDLocal, id)
}
