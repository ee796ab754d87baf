package reviews

import (
	reviewsvc "marketplace-backend/internal/application/reviews"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *reviewsvc.Service
}

// Create POST /api/reviews
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in reviewsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	r, err := h.Service.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, r)
}

// ForUser GET /api/reviews/user/:userId
func (h *Handlers) ForUser(c *fiber.Ctx) error {
	out, err := h.Service.ForUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, out)
}
