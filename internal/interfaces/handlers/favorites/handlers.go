package favorites

import (
	favsvc "marketplace-backend/internal/application/favorites"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *favsvc.Service
}

type addRequest struct {
	ListingID string `json:"listingId"`
}

// IDs GET /api/favorites/ids
func (h *Handlers) IDs(c *fiber.Ctx) error {
	ids, err := h.Service.IDs(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, ids)
}

// List GET /api/favorites
func (h *Handlers) List(c *fiber.Ctx) error {
	listings, err := h.Service.ListFavorites(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, listings)
}

// Add POST /api/favorites. Favoriting twice answers 200 instead of 201.
func (h *Handlers) Add(c *fiber.Ctx) error {
	var req addRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	res, err := h.Service.Add(c.UserContext(), middleware.UserID(c), req.ListingID)
	if err != nil {
		return response.FromError(c, err)
	}
	if !res.Created {
		body := fiber.Map{"message": "Already favorited"}
		if res.Favorite != nil {
			body["favorite"] = res.Favorite
		}
		return response.JSON(c, body)
	}
	return response.Created(c, fiber.Map{"message": "Listing favorited successfully", "favorite": res.Favorite})
}

// Remove DELETE /api/favorites/:listingId
func (h *Handlers) Remove(c *fiber.Ctx) error {
	if err := h.Service.Remove(c.UserContext(), middleware.UserID(c), c.Params("listingId")); err != nil {
		return response.FromError(c, err)
	}
	return response.Message(c, fiber.StatusOK, "Favorite removed successfully")
}
