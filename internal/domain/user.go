package domain

import "time"

// Location is a geocoded place. Coordinates are [lng, lat] when known.
type Location struct {
	ZipCode     string    `json:"zipCode,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// HasPoint reports whether the location carries a usable [lng, lat] pair.
func (l *Location) HasPoint() bool {
	return l != nil && len(l.Coordinates) == 2
}

type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Location     *Location `json:"location,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the populated form of a user reference.
type UserRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Ref returns the public reference for u.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// ProfileUpdate holds the optional profile fields a user may change.
type ProfileUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Location  *Location
}
