package domain

import "time"

type OfferType string

const (
	OfferInitial OfferType = "initial"
	OfferCounter OfferType = "counter"
	OfferAccept  OfferType = "accept"
	OfferReject  OfferType = "reject"
)

// Offer is the price proposal carried by a message.
type Offer struct {
	Type          OfferType `json:"type"`
	OriginalPrice float64   `json:"originalPrice"`
	OfferedPrice  float64   `json:"offeredPrice"`
}

type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversation"`
	SenderID       string    `json:"sender"`
	RecipientID    string    `json:"recipient"`
	ListingID      string    `json:"listingId,omitempty"`
	Content        string    `json:"content"`
	Offer          *Offer    `json:"offer,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MessageView is a message with its sender populated.
type MessageView struct {
	Message
	Sender *UserRef `json:"sender"`
}

// OfferState is the negotiation status of a conversation.
type OfferState struct {
	Status        OfferType `json:"status"`
	OriginalPrice float64   `json:"originalPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	MessageID     string    `json:"messageId"`
	ProposedBy    string    `json:"proposedBy"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Open reports whether the latest offer still awaits a response.
func (s *OfferState) Open() bool {
	return s != nil && (s.Status == OfferInitial || s.Status == OfferCounter)
}

type Conversation struct {
	ID            string      `json:"_id"`
	Participants  []string    `json:"participants"`
	ListingID     string      `json:"listingId"`
	LastMessageID string      `json:"lastMessage,omitempty"`
	Offer         *OfferState `json:"offer,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// HasParticipant reports whether userID takes part in c.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ConversationView is a conversation with participants, listing and last message populated.
type ConversationView struct {
	Conversation
	Participants []UserRef   `json:"participants"`
	Listing      *ListingRef `json:"listing"`
	LastMessage  *Message    `json:"lastMessage"`
}

// ConversationKey identifies the conversation between two users about a
// listing regardless of who wrote first.
func ConversationKey(a, b, listingID string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b + ":" + listingID
}
