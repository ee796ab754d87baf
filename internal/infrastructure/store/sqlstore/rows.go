package sqlstore

import (
	"encoding/json"
	"time"

	"marketplace-backend/internal/domain"

	"gorm.io/datatypes"
)

type userRow struct {
	ID        string `gorm:"primaryKey;size:24"`
	Username  string `gorm:"uniqueIndex;size:20;not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	FirstName string
	LastName  string
	ZipCode   string
	City      string
	State     string
	Lng       *float64
	Lat       *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type listingRow struct {
	ID             string  `gorm:"primaryKey;size:24"`
	Title          string  `gorm:"not null"`
	Description    string  `gorm:"type:text"`
	Price          float64 `gorm:"index"`
	Category       string  `gorm:"index"`
	Condition      string
	Images         datatypes.JSON
	ZipCode        string
	City           string
	State          string
	Lng            *float64
	Lat            *float64
	CreatedBy      string  `gorm:"index;size:24;not null"`
	Sold           bool    `gorm:"index;not null;default:false"`
	BuyerID        *string `gorm:"index;size:24"`
	SoldExternally bool    `gorm:"not null;default:false"`
	SoldAt         *time.Time
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (listingRow) TableName() string { return "listings" }

type conversationRow struct {
	ID             string `gorm:"primaryKey;size:24"`
	Key            string `gorm:"column:conv_key;uniqueIndex;not null"`
	ParticipantA   string `gorm:"index;size:24;not null"`
	ParticipantB   string `gorm:"index;size:24;not null"`
	ListingID      string `gorm:"index;size:24;not null"`
	LastMessageID  *string
	Offer          datatypes.JSON
	OfferMessageID *string `gorm:"size:24"`
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"index"`
}

func (conversationRow) TableName() string { return "conversations" }

type messageRow struct {
	ID             string `gorm:"primaryKey;size:24"`
	ConversationID string `gorm:"index;size:24;not null"`
	SenderID       string `gorm:"size:24;not null"`
	RecipientID    string `gorm:"index;size:24;not null"`
	ListingID      *string
	Content        string `gorm:"type:text"`
	Offer          datatypes.JSON
	Read           bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

func (messageRow) TableName() string { return "messages" }

type reviewRow struct {
	ID            string `gorm:"primaryKey;size:24"`
	ReviewerID    string `gorm:"uniqueIndex:idx_review_pair;size:24;not null"`
	RevieweeID    string `gorm:"uniqueIndex:idx_review_pair;index;size:24;not null"`
	TransactionID string `gorm:"uniqueIndex:idx_review_pair;size:24;not null"`
	RoleReviewed  string
	Rating        int
	Comment       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (reviewRow) TableName() string { return "reviews" }

type favoriteRow struct {
	ID        string `gorm:"primaryKey;size:24"`
	UserID    string `gorm:"uniqueIndex:idx_favorite_pair;index;size:24;not null"`
	ListingID string `gorm:"uniqueIndex:idx_favorite_pair;size:24;not null"`
	CreatedAt time.Time
}

func (favoriteRow) TableName() string { return "favorites" }

func locationFrom(zip, city, state string, lng, lat *float64) *domain.Location {
	if zip == "" && city == "" && state == "" && lng == nil {
		return nil
	}
	loc := &domain.Location{ZipCode: zip, City: city, State: state}
	if lng != nil && lat != nil {
		loc.Coordinates = []float64{*lng, *lat}
	}
	return loc
}

func splitLocation(l *domain.Location) (zip, city, state string, lng, lat *float64) {
	if l == nil {
		return
	}
	if l.HasPoint() {
		x, y := l.Coordinates[0], l.Coordinates[1]
		lng, lat = &x, &y
	}
	return l.ZipCode, l.City, l.State, lng, lat
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.Password,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Location:     locationFrom(r.ZipCode, r.City, r.State, r.Lng, r.Lat),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func encodeJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func (r *listingRow) toDomain() (*domain.Listing, error) {
	images := []domain.Image{}
	if len(r.Images) > 0 {
		if err := json.Unmarshal(r.Images, &images); err != nil {
			return nil, err
		}
	}
	l := &domain.Listing{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		Category:       r.Category,
		Condition:      r.Condition,
		Images:         images,
		Location:       locationFrom(r.ZipCode, r.City, r.State, r.Lng, r.Lat),
		CreatedBy:      r.CreatedBy,
		Sold:           r.Sold,
		SoldExternally: r.SoldExternally,
		SoldAt:         r.SoldAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.BuyerID != nil {
		l.BuyerID = *r.BuyerID
	}
	return l, nil
}

func (r *conversationRow) toDomain() (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:           r.ID,
		Participants: []string{r.ParticipantA, r.ParticipantB},
		ListingID:    r.ListingID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastMessageID != nil {
		c.LastMessageID = *r.LastMessageID
	}
	if len(r.Offer) > 0 {
		var state domain.OfferState
		if err := json.Unmarshal(r.Offer, &state); err != nil {
			return nil, err
		}
		c.Offer = &state
	}
	return c, nil
}

func (r *messageRow) toDomain() (*domain.Message, error) {
	m := &domain.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		RecipientID:    r.RecipientID,
		Content:        r.Content,
		Read:           r.Read,
		CreatedAt:      r.CreatedAt,
	}
	if r.ListingID != nil {
		m.ListingID = *r.ListingID
	}
	if len(r.Offer) > 0 {
		var offer domain.Offer
		if err := json.Unmarshal(r.Offer, &offer); err != nil {
			return nil, err
		}
		m.Offer = &offer
	}
	return m, nil
}

func (r *reviewRow) toDomain() *domain.Review {
	return &domain.Review{
		ID:            r.ID,
		ReviewerID:    r.ReviewerID,
		RevieweeID:    r.RevieweeID,
		RoleReviewed:  domain.Role(r.RoleReviewed),
		Rating:        r.Rating,
		Comment:       r.Comment,
		TransactionID: r.TransactionID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *favoriteRow) toDomain() *domain.Favorite {
	return &domain.Favorite{ID: r.ID, UserID: r.UserID, ListingID: r.ListingID, CreatedAt: r.CreatedAt}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
