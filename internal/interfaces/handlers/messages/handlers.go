package messages

import (
	msgsvc "marketplace-backend/internal/application/messages"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for messaging endpoints.
type Handlers struct {
	Service *msgsvc.Service
}

// Conversations GET /api/messages/conversations
func (h *Handlers) Conversations(c *fiber.Ctx) error {
	convs, err := h.Service.ListConversations(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, convs)
}

// Thread GET /api/messages/conversations/:conversationId
func (h *Handlers) Thread(c *fiber.Ctx) error {
	t, err := h.Service.Thread(c.UserContext(), middleware.UserID(c), c.Params("conversationId"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.JSON(c, t)
}

// FromListing POST /api/messages/from-listing
func (h *Handlers) FromListing(c *fiber.Ctx) error {
	var in msgsvc.FromListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	sent, err := h.Service.StartFromListing(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, sent)
}

// Reply POST /api/messages/reply/:conversationId
func (h *Handlers) Reply(c *fiber.Ctx) error {
	var in msgsvc.ReplyInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.Reply(c.UserContext(), middleware.UserID(c), c.Params("conversationId"), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, m)
}

// Offer POST /api/messages/offer
func (h *Handlers) Offer(c *fiber.Ctx) error {
	var in msgsvc.OfferInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	sent, err := h.Service.SendOffer(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, sent)
}

// RespondOffer POST /api/messages/respond-offer/:messageId
func (h *Handlers) RespondOffer(c *fiber.Ctx) error {
	var in msgsvc.RespondInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.RespondOffer(c.UserContext(), middleware.UserID(c), c.Params("messageId"), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, m)
}
