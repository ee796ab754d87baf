package auth

import (
	"time"

	authsvc "marketplace-backend/internal/application/auth"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie holds the token set by login for browser clients.
const TokenCookie = "token"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service    *authsvc.Service
	Production bool
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register POST /api/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in authsvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	token, err := h.Service.Register(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, tokenResponse{Token: token})
}

// Login POST /api/auth/login: returns the token and also sets it as an HTTP-only cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var in authsvc.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	token, err := h.Service.Login(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	ttl := h.Service.Tokens.TTL
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.Production,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return response.JSON(c, tokenResponse{Token: token})
}

// Logout POST /api/auth/logout: revokes the cookie token and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	token := c.Cookies(TokenCookie)
	if token == "" {
		return response.Error(c, "No token found", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Logout(c.UserContext(), token); err != nil {
		return response.FromError(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.Production,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return response.Message(c, fiber.StatusOK, "Logged out successfully")
}

// CurrentUser GET /api/auth/current-user
func (h *Handlers) CurrentUser(c *fiber.Ctx) error {
	return response.JSON(c, fiber.Map{"userId": middleware.UserID(c)})
}
