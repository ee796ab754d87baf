package domain

import "time"

type Favorite struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user"`
	ListingID string    `json:"listing"`
	CreatedAt time.Time `json:"createdAt"`
}
