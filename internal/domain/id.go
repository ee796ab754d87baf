package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh document id as a 24-character hex string.
// Both storage backends use the same id format so API payloads are identical.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed document id.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
