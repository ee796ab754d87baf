package user

import (
	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for user endpoints.
type Handlers struct {
	Service *usersvc.Service
}

// List GET /api/users/list
func (h *Handlers) List(c *fiber.Ctx) error {
	users, err := h.Service.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, users)
}

// Profile GET /api/users/profile
func (h *Handlers) Profile(c *fiber.Ctx) error {
	u, err := h.Service.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, u)
}

// UpdateProfile PUT /api/users/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var in usersvc.UpdateProfileInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, u)
}

// PublicProfile GET /api/users/profile/:userId
func (h *Handlers) PublicProfile(c *fiber.Ctx) error {
	p, err := h.Service.PublicProfile(c.UserContext(), c.Params("userId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, p)
}

// Purchases GET /api/users/purchases
func (h *Handlers) Purchases(c *fiber.Ctx) error {
	listings, err := h.Service.Purchases(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, listings)
}

// SoldItems GET /api/users/sold-items
func (h *Handlers) SoldItems(c *fiber.Ctx) error {
	listings, err := h.Service.SoldItems(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, listings)
}
