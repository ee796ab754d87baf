// Package sqlstore implements the domain repositories on a relational
// database through gorm (Postgres in deployments, SQLite locally and in tests).
package sqlstore

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/domain"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB

	Users         *UserRepository
	Listings      *ListingRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Reviews       *ReviewRepository
	Favorites     *FavoriteRepository
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         &UserRepository{db: db},
		Listings:      &ListingRepository{db: db},
		Conversations: &ConversationRepository{db: db},
		Messages:      &MessageRepository{db: db},
		Reviews:       &ReviewRepository{db: db},
		Favorites:     &FavoriteRepository{db: db},
	}
}

// Migrate creates or updates the tables and their unique indexes.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&userRow{},
		&listingRow{},
		&conversationRow{},
		&messageRow{},
		&reviewRow{},
		&favoriteRow{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return domain.ErrDuplicate
	}
	return err
}

// isUniqueViolation catches drivers whose errors are not translated by gorm.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func checkID(id string) error {
	if !domain.IsValidID(id) {
		return domain.ErrInvalidID
	}
	return nil
}
