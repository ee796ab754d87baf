package mongostore

import (
	"time"

	"marketplace-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type locationDoc struct {
	ZipCode     string    `bson:"zipCode,omitempty"`
	City        string    `bson:"city,omitempty"`
	State       string    `bson:"state,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	FirstName string             `bson:"firstName,omitempty"`
	LastName  string             `bson:"lastName,omitempty"`
	Location  *locationDoc       `bson:"location,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type imageDoc struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type listingDoc struct {
	ID             primitive.ObjectID  `bson:"_id"`
	Title          string              `bson:"title"`
	Description    string              `bson:"description"`
	Price          float64             `bson:"price"`
	Category       string              `bson:"category"`
	Condition      string              `bson:"condition"`
	Images         []imageDoc          `bson:"images"`
	Location       *locationDoc        `bson:"location,omitempty"`
	CreatedBy      primitive.ObjectID  `bson:"createdBy"`
	Sold           bool                `bson:"sold"`
	BuyerID        *primitive.ObjectID `bson:"buyerId,omitempty"`
	SoldExternally bool                `bson:"soldExternally"`
	SoldAt         *time.Time          `bson:"soldAt,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`
	// Filled by $geoNear, never stored.
	Distance *float64 `bson:"distance,omitempty"`
}

type offerDoc struct {
	Type          string  `bson:"type"`
	OriginalPrice float64 `bson:"originalPrice"`
	OfferedPrice  float64 `bson:"offeredPrice"`
}

type messageDoc struct {
	ID           primitive.ObjectID  `bson:"_id"`
	Conversation primitive.ObjectID  `bson:"conversation"`
	Sender       primitive.ObjectID  `bson:"sender"`
	Recipient    primitive.ObjectID  `bson:"recipient"`
	ListingID    *primitive.ObjectID `bson:"listingId,omitempty"`
	Content      string              `bson:"content"`
	Offer        *offerDoc           `bson:"offer,omitempty"`
	Read         bool                `bson:"read"`
	CreatedAt    time.Time           `bson:"createdAt"`
}

type offerStateDoc struct {
	Status        string             `bson:"status"`
	OriginalPrice float64            `bson:"originalPrice"`
	CurrentPrice  float64            `bson:"currentPrice"`
	MessageID     primitive.ObjectID `bson:"messageId"`
	ProposedBy    primitive.ObjectID `bson:"proposedBy"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type conversationDoc struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Key          string               `bson:"key"`
	Participants []primitive.ObjectID `bson:"participants"`
	ListingID    primitive.ObjectID   `bson:"listingId"`
	LastMessage  *primitive.ObjectID  `bson:"lastMessage,omitempty"`
	Offer        *offerStateDoc       `bson:"offer,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type reviewDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Reviewer     primitive.ObjectID `bson:"reviewer"`
	Reviewee     primitive.ObjectID `bson:"reviewee"`
	RoleReviewed string             `bson:"roleReviewed"`
	Rating       int                `bson:"rating"`
	Comment      string             `bson:"comment"`
	Transaction  primitive.ObjectID `bson:"transaction"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type favoriteDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"user"`
	Listing   primitive.ObjectID `bson:"listing"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func toLocationDoc(l *domain.Location) *locationDoc {
	if l == nil {
		return nil
	}
	return &locationDoc{ZipCode: l.ZipCode, City: l.City, State: l.State, Coordinates: l.Coordinates}
}

func (d *locationDoc) toDomain() *domain.Location {
	if d == nil {
		return nil
	}
	return &domain.Location{ZipCode: d.ZipCode, City: d.City, State: d.State, Coordinates: d.Coordinates}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Location:     d.Location.toDomain(),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toImageDocs(in []domain.Image) []imageDoc {
	out := make([]imageDoc, 0, len(in))
	for _, img := range in {
		out = append(out, imageDoc{PublicID: img.PublicID, URL: img.URL})
	}
	return out
}

func (d *listingDoc) toDomain() *domain.Listing {
	images := make([]domain.Image, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domain.Image{PublicID: img.PublicID, URL: img.URL})
	}
	return &domain.Listing{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		Price:          d.Price,
		Category:       d.Category,
		Condition:      d.Condition,
		Images:         images,
		Location:       d.Location.toDomain(),
		CreatedBy:      d.CreatedBy.Hex(),
		Sold:           d.Sold,
		BuyerID:        hexOrEmpty(d.BuyerID),
		SoldExternally: d.SoldExternally,
		SoldAt:         d.SoldAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		Distance:       d.Distance,
	}
}

func (d *messageDoc) toDomain() *domain.Message {
	m := &domain.Message{
		ID:             d.ID.Hex(),
		ConversationID: d.Conversation.Hex(),
		SenderID:       d.Sender.Hex(),
		RecipientID:    d.Recipient.Hex(),
		ListingID:      hexOrEmpty(d.ListingID),
		Content:        d.Content,
		Read:           d.Read,
		CreatedAt:      d.CreatedAt,
	}
	if d.Offer != nil {
		m.Offer = &domain.Offer{
			Type:          domain.OfferType(d.Offer.Type),
			OriginalPrice: d.Offer.OriginalPrice,
			OfferedPrice:  d.Offer.OfferedPrice,
		}
	}
	return m
}

func toOfferStateDoc(s domain.OfferState) (*offerStateDoc, error) {
	msgID, err := toOID(s.MessageID)
	if err != nil {
		return nil, err
	}
	by, err := toOID(s.ProposedBy)
	if err != nil {
		return nil, err
	}
	return &offerStateDoc{
		Status:        string(s.Status),
		OriginalPrice: s.OriginalPrice,
		CurrentPrice:  s.CurrentPrice,
		MessageID:     msgID,
		ProposedBy:    by,
		UpdatedAt:     s.UpdatedAt,
	}, nil
}

func (d *conversationDoc) toDomain() *domain.Conversation {
	c := &domain.Conversation{
		ID:            d.ID.Hex(),
		ListingID:     d.ListingID.Hex(),
		LastMessageID: hexOrEmpty(d.LastMessage),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, p := range d.Participants {
		c.Participants = append(c.Participants, p.Hex())
	}
	if d.Offer != nil {
		c.Offer = &domain.OfferState{
			Status:        domain.OfferType(d.Offer.Status),
			OriginalPrice: d.Offer.OriginalPrice,
			CurrentPrice:  d.Offer.CurrentPrice,
			MessageID:     d.Offer.MessageID.Hex(),
			ProposedBy:    d.Offer.ProposedBy.Hex(),
			UpdatedAt:     d.Offer.UpdatedAt,
		}
	}
	return c
}

func (d *reviewDoc) toDomain() *domain.Review {
	return &domain.Review{
		ID:            d.ID.Hex(),
		ReviewerID:    d.Reviewer.Hex(),
		RevieweeID:    d.Reviewee.Hex(),
		RoleReviewed:  domain.Role(d.RoleReviewed),
		Rating:        d.Rating,
		Comment:       d.Comment,
		TransactionID: d.Transaction.Hex(),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d *favoriteDoc) toDomain() *domain.Favorite {
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.User.Hex(),
		ListingID: d.Listing.Hex(),
		CreatedAt: d.CreatedAt,
	}
}
