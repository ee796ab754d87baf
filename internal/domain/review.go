package domain

import "time"

type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

type Review struct {
	ID            string    `json:"_id"`
	ReviewerID    string    `json:"reviewer"`
	RevieweeID    string    `json:"reviewee"`
	RoleReviewed  Role      `json:"roleReviewed"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	TransactionID string    `json:"transaction"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ReviewView struct {
	Review
	Reviewer    *UserRef    `json:"reviewer"`
	Reviewee    *UserRef    `json:"reviewee,omitempty"`
	Transaction *ListingRef `json:"transaction,omitempty"`
}
