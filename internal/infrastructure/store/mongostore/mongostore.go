// Package mongostore implements the domain repositories on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	colUsers         = "users"
	colListings      = "listings"
	colConversations = "conversations"
	colMessages      = "messages"
	colReviews       = "reviews"
	colFavorites     = "favorites"
)

// Store bundles the repositories backed by one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	Users         *UserRepository
	Listings      *ListingRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Reviews       *ReviewRepository
	Favorites     *FavoriteRepository
}

// Connect dials uri, verifies the primary is reachable and returns a Store on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		client:        db.Client(),
		db:            db,
		Users:         &UserRepository{collection: db.Collection(colUsers)},
		Listings:      &ListingRepository{collection: db.Collection(colListings)},
		Conversations: &ConversationRepository{collection: db.Collection(colConversations)},
		Messages:      &MessageRepository{collection: db.Collection(colMessages)},
		Reviews:       &ReviewRepository{collection: db.Collection(colReviews)},
		Favorites:     &FavoriteRepository{collection: db.Collection(colFavorites)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colListings: {
			{Keys: bson.D{{Key: "location.coordinates", Value: "2dsphere"}}},
			{Keys: bson.D{{Key: "sold", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdBy", Value: 1}}},
			{Keys: bson.D{{Key: "buyerId", Value: 1}}},
		},
		colConversations: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updatedAt", Value: -1}}},
			{Keys: bson.D{{Key: "listingId", Value: 1}}},
		},
		colMessages: {
			{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		colReviews: {
			{
				Keys:    bson.D{{Key: "reviewer", Value: 1}, {Key: "reviewee", Value: 1}, {Key: "transaction", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "reviewee", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colFavorites: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "listing", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for col, models := range specs {
		names, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
		log.Debug().Str("collection", col).Strs("indexes", names).Msg("mongo indexes ensured")
	}
	return nil
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toOID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

// toOIDs converts ids, skipping malformed ones.
func toOIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexOrEmpty(oid *primitive.ObjectID) string {
	if oid == nil || oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrDuplicate
	}
	return err
}
