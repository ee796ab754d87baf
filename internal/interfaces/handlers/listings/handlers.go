package listings

import (
	"strings"

	listsvc "marketplace-backend/internal/application/listings"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for listing endpoints.
type Handlers struct {
	Service *listsvc.Service
}

type markSoldRequest struct {
	BuyerID string `json:"buyerId"`
}

// Create POST /api/listings: multipart with an optional "image" file, or JSON.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in listsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	img, closeImg, err := imageFrom(c)
	if err != nil {
		return response.Error(c, "Invalid image upload", fiber.StatusBadRequest, nil)
	}
	defer closeImg()

	l, err := h.Service.Create(c.UserContext(), middleware.UserID(c), in, img)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, fiber.Map{"listing": l})
}

// Browse GET /api/listings?zipCode=
func (h *Handlers) Browse(c *fiber.Ctx) error {
	listings, err := h.Service.Browse(c.UserContext(), c.Query("zipCode"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, listings)
}

// Search GET /api/listings/search
func (h *Handlers) Search(c *fiber.Ctx) error {
	var in listsvc.SearchInput
	if err := c.QueryParser(&in); err != nil {
		return response.Error(c, "Invalid query parameters", fiber.StatusBadRequest, nil)
	}
	listings, err := h.Service.Search(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, listings)
}

// Get GET /api/listings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	l, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, l)
}

// Update PUT /api/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	var in listsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	img, closeImg, err := imageFrom(c)
	if err != nil {
		return response.Error(c, "Invalid image upload", fiber.StatusBadRequest, nil)
	}
	defer closeImg()

	l, err := h.Service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in, img)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, l)
}

// Delete DELETE /api/listings/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return response.FromError(c, err)
	}
	return response.Message(c, fiber.StatusOK, "Listing successfully deleted")
}

// PotentialBuyers GET /api/listings/:id/potential-buyers
func (h *Handlers) PotentialBuyers(c *fiber.Ctx) error {
	users, err := h.Service.PotentialBuyers(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, users)
}

// MarkSold PUT /api/listings/:id/sold
func (h *Handlers) MarkSold(c *fiber.Ctx) error {
	var req markSoldRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
		}
	}
	l, err := h.Service.MarkSold(c.UserContext(), middleware.UserID(c), c.Params("id"), req.BuyerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, l)
}

// imageFrom opens the "image" part of a multipart request. It returns a nil
// upload for other content types or when no file was sent.
func imageFrom(c *fiber.Ctx) (*listsvc.ImageUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &listsvc.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
