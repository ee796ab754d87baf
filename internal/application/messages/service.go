// Package messages implements conversations between buyers and sellers and
// the offer negotiation carried inside them.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace-backend/internal/application/refs"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

const msgAccessDenied = "Access denied for this conversation"

type Service struct {
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Listings      domain.ListingRepository
	Users         domain.UserRepository
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

type FromListingInput struct {
	ListingID string `json:"listingId" validate:"required,objectid"`
	Message   string `json:"message" validate:"required,max=2000"`
}

type ReplyInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type OfferInput struct {
	ListingID    string   `json:"listingId" validate:"required,objectid"`
	OfferedPrice *float64 `json:"offeredPrice" validate:"required,gt=0"`
	Message      string   `json:"message" validate:"max=2000"`
}

type RespondInput struct {
	Response     string   `json:"response" validate:"required"`
	CounterPrice *float64 `json:"counterPrice"`
	Message      string   `json:"message" validate:"max=2000"`
}

// Sent is returned when a message opens or continues a listing conversation.
type Sent struct {
	Message      *domain.MessageView `json:"message"`
	Conversation string              `json:"conversation"`
}

// Thread is a conversation's messages with its listing and offer state.
type Thread struct {
	Messages []domain.MessageView `json:"messages"`
	Listing  *domain.ListingRef   `json:"listing"`
	Offer    *domain.OfferState   `json:"offer"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ListConversations lists userID's conversations, most recently active first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]domain.ConversationView, error) {
	const failure = "Could not retrieve conversations"
	convs, err := s.Conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	var userIDs, listingIDs, messageIDs []string
	for _, c := range convs {
		userIDs = append(userIDs, c.Participants...)
		listingIDs = append(listingIDs, c.ListingID)
		if c.LastMessageID != "" {
			messageIDs = append(messageIDs, c.LastMessageID)
		}
	}
	users, err := refs.Users(ctx, s.Users, userIDs, false)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	listings, err := refs.Listings(ctx, s.Listings, listingIDs)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	last := map[string]*domain.Message{}
	if len(messageIDs) > 0 {
		msgs, err := s.Messages.FindByIDs(ctx, messageIDs)
		if err != nil {
			return nil, apperr.Internal(failure, err)
		}
		for i := range msgs {
			last[msgs[i].ID] = &msgs[i]
		}
	}

	out := make([]domain.ConversationView, 0, len(convs))
	for _, c := range convs {
		v := domain.ConversationView{Conversation: c, Participants: make([]domain.UserRef, 0, len(c.Participants))}
		for _, p := range c.Participants {
			if u, ok := users[p]; ok {
				v.Participants = append(v.Participants, u)
			}
		}
		if l, ok := listings[c.ListingID]; ok {
			v.Listing = l.Ref()
		}
		v.LastMessage = last[c.LastMessageID]
		out = append(out, v)
	}
	return out, nil
}

// Thread returns the messages of a conversation oldest first and marks the
// ones addressed to userID as read.
func (s *Service) Thread(ctx context.Context, userID, conversationID string) (*Thread, error) {
	const failure = "Could not retrieve messages"
	conv, err := s.participantOf(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Messages.ListForConversation(ctx, conv.ID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	views, err := s.views(ctx, msgs)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if _, err := s.Messages.MarkRead(ctx, conv.ID, userID); err != nil {
		return nil, apperr.Internal(failure, err)
	}

	t := &Thread{Messages: views, Offer: conv.Offer}
	if l, err := s.Listings.FindByID(ctx, conv.ListingID); err == nil {
		t.Listing = l.Ref()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.Internal(failure, err)
	}
	return t, nil
}

// StartFromListing messages the seller of a listing, opening the
// conversation on first contact.
func (s *Service) StartFromListing(ctx context.Context, userID string, in FromListingInput) (*Sent, error) {
	const failure = "Could not send message"
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	listing, err := s.listing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.CreatedBy == userID {
		return nil, apperr.BadRequest("Cannot message yourself about your own listing")
	}
	conv, err := s.Conversations.FindOrCreate(ctx, userID, listing.CreatedBy, listing.ID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	m := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		RecipientID:    listing.CreatedBy,
		ListingID:      listing.ID,
		Content:        in.Message,
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if err := s.Conversations.Touch(ctx, conv.ID, m.ID); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	v, err := s.view(ctx, m)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return &Sent{Message: v, Conversation: conv.ID}, nil
}

// Reply sends content to the other participant of the conversation.
func (s *Service) Reply(ctx context.Context, userID, conversationID string, in ReplyInput) (*domain.MessageView, error) {
	const failure = "Could not send message"
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	conv, err := s.participantOf(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	m := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		RecipientID:    conv.Other(userID),
		ListingID:      conv.ListingID,
		Content:        in.Content,
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if err := s.Conversations.Touch(ctx, conv.ID, m.ID); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	v, err := s.view(ctx, m)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return v, nil
}

// SendOffer opens a negotiation on a listing. A new initial offer replaces
// whatever state the conversation had.
func (s *Service) SendOffer(ctx context.Context, userID string, in OfferInput) (*Sent, error) {
	const failure = "Could not send offer"
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	listing, err := s.listing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.CreatedBy == userID {
		return nil, apperr.BadRequest("Cannot send an offer on your own listing")
	}
	if listing.Sold {
		return nil, apperr.BadRequest("This listing has already been sold")
	}
	conv, err := s.Conversations.FindOrCreate(ctx, userID, listing.CreatedBy, listing.ID)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}

	price := *in.OfferedPrice
	content := in.Message
	if content == "" {
		content = fmt.Sprintf("I'd like to offer $%s for this item.", formatPrice(price))
	}
	m := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		RecipientID:    listing.CreatedBy,
		ListingID:      listing.ID,
		Content:        content,
		Offer:          &domain.Offer{Type: domain.OfferInitial, OriginalPrice: listing.Price, OfferedPrice: price},
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	state := domain.OfferState{
		Status:        domain.OfferInitial,
		OriginalPrice: listing.Price,
		CurrentPrice:  price,
		MessageID:     m.ID,
		ProposedBy:    userID,
		UpdatedAt:     s.now(),
	}
	if err := s.Conversations.SetOffer(ctx, conv.ID, m.ID, state, ""); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	s.Metrics.Offer(string(domain.OfferInitial))

	v, err := s.view(ctx, m)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return &Sent{Message: v, Conversation: conv.ID}, nil
}

// RespondOffer accepts, rejects or counters the offer carried by messageID.
// Only the recipient of the conversation's current open offer may respond.
func (s *Service) RespondOffer(ctx context.Context, userID, messageID string, in RespondInput) (*domain.MessageView, error) {
	const failure = "Could not respond to offer"
	orig, err := s.Messages.FindByID(ctx, messageID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return nil, apperr.NotFound("Offer not found")
	}
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if orig.Offer == nil {
		return nil, apperr.BadRequest("This message does not contain an offer")
	}
	if orig.RecipientID != userID {
		return nil, apperr.Forbidden("Access denied for this offer")
	}
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	kind, ok := ParseResponse(in.Response)
	if !ok {
		return nil, apperr.BadRequest("Response must be accept, reject or counter")
	}

	price := orig.Offer.OfferedPrice
	if kind == domain.OfferCounter {
		if in.CounterPrice == nil || *in.CounterPrice <= 0 {
			return nil, apperr.Validation([]apperr.FieldError{{Field: "counterPrice", Message: "counterPrice must be greater than 0"}})
		}
		price = *in.CounterPrice
	}

	conv, err := s.Conversations.FindByID(ctx, orig.ConversationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Offer not found")
	}
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	if !conv.Offer.Open() || conv.Offer.MessageID != orig.ID {
		return nil, apperr.Conflict("This offer is no longer open")
	}

	content := strings.TrimSpace(in.Message)
	if content == "" {
		content = defaultResponse(kind, price)
	}
	reply := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		RecipientID:    orig.SenderID,
		ListingID:      orig.ListingID,
		Content:        content,
		Offer:          &domain.Offer{Type: kind, OriginalPrice: orig.Offer.OriginalPrice, OfferedPrice: price},
	}
	if err := s.Messages.Create(ctx, reply); err != nil {
		return nil, apperr.Internal(failure, err)
	}
	state := domain.OfferState{
		Status:        kind,
		OriginalPrice: orig.Offer.OriginalPrice,
		CurrentPrice:  price,
		MessageID:     reply.ID,
		ProposedBy:    userID,
		UpdatedAt:     s.now(),
	}
	if err := s.Conversations.SetOffer(ctx, conv.ID, reply.ID, state, orig.ID); err != nil {
		if derr := s.Messages.Delete(ctx, reply.ID); derr != nil {
			log.Error().Err(derr).Str("message_id", reply.ID).Msg("could not remove superseded offer response")
		}
		if errors.Is(err, domain.ErrConflict) {
			return nil, apperr.Conflict("This offer is no longer open")
		}
		return nil, apperr.Internal(failure, err)
	}
	s.Metrics.Offer(string(kind))

	v, err := s.view(ctx, reply)
	if err != nil {
		return nil, apperr.Internal(failure, err)
	}
	return v, nil
}

// ParseResponse maps the accepted spellings of an offer response to its type.
func ParseResponse(r string) (domain.OfferType, bool) {
	switch strings.ToLower(strings.TrimSpace(r)) {
	case "accept", "accepted":
		return domain.OfferAccept, true
	case "reject", "rejected":
		return domain.OfferReject, true
	case "counter":
		return domain.OfferCounter, true
	}
	return "", false
}

func defaultResponse(kind domain.OfferType, price float64) string {
	switch kind {
	case domain.OfferAccept:
		return "I accept your offer!"
	case domain.OfferReject:
		return "Offer declined."
	}
	return fmt.Sprintf("Counter offer: $%s", formatPrice(price))
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func (s *Service) participantOf(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	conv, err := s.Conversations.FindByID(ctx, conversationID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	if err != nil {
		return nil, apperr.Internal("Could not load conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	return conv, nil
}

func (s *Service) listing(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.Listings.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
		return nil, apperr.NotFound("Listing not found")
	}
	if err != nil {
		return nil, apperr.Internal("Could not load listing", err)
	}
	return l, nil
}

func (s *Service) view(ctx context.Context, m *domain.Message) (*domain.MessageView, error) {
	views, err := s.views(ctx, []domain.Message{*m})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) views(ctx context.Context, msgs []domain.Message) ([]domain.MessageView, error) {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderID)
	}
	senders, err := refs.Users(ctx, s.Users, ids, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := domain.MessageView{Message: m}
		if u, ok := senders[m.SenderID]; ok {
			v.Sender = &u
		}
		out = append(out, v)
	}
	return out, nil
}
