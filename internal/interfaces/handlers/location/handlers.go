package location

import (
	locsvc "marketplace-backend/internal/application/location"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *locsvc.Service
}

// ZipFromCoords GET /api/location/zip-from-coords?latitude=&longitude=
func (h *Handlers) ZipFromCoords(c *fiber.Ctx) error {
	res, err := h.Service.ZipFromCoords(c.UserContext(), c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, res)
}
