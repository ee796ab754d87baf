// Package store selects and opens the configured persistence backend.
package store

import (
	"context"
	"fmt"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/infrastructure/database"
	"marketplace-backend/internal/infrastructure/store/mongostore"
	"marketplace-backend/internal/infrastructure/store/sqlstore"

	"github.com/rs/zerolog/log"
)

// Store exposes the repositories of whichever backend is configured.
type Store struct {
	Driver        string
	Users         domain.UserRepository
	Listings      domain.ListingRepository
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Reviews       domain.ReviewRepository
	Favorites     domain.FavoriteRepository

	pinger domain.Pinger
	closer func(context.Context) error
}

func (s *Store) Ping(ctx context.Context) error { return s.pinger.Ping(ctx) }

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// Open connects to the backend named by cfg.DBDriver and prepares its
// indexes or tables.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case "mongo":
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("MongoDB connected")
		return FromMongo(ms), nil
	case "postgres":
		db, err := database.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return fromGorm("postgres", sqlstore.New(db))
	case "sqlite":
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return fromGorm("sqlite", sqlstore.New(db))
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

func fromGorm(driver string, ss *sqlstore.Store) (*Store, error) {
	if err := ss.Migrate(); err != nil {
		_ = ss.Close(context.Background())
		return nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	log.Info().Str("driver", driver).Msg("SQL database connected")
	s := FromSQL(ss)
	s.Driver = driver
	return s, nil
}

func FromMongo(ms *mongostore.Store) *Store {
	return &Store{
		Driver:        "mongo",
		Users:         ms.Users,
		Listings:      ms.Listings,
		Conversations: ms.Conversations,
		Messages:      ms.Messages,
		Reviews:       ms.Reviews,
		Favorites:     ms.Favorites,
		pinger:        ms,
		closer:        ms.Close,
	}
}

func FromSQL(ss *sqlstore.Store) *Store {
	return &Store{
		Driver:        "sql",
		Users:         ss.Users,
		Listings:      ss.Listings,
		Conversations: ss.Conversations,
		Messages:      ss.Messages,
		Reviews:       ss.Reviews,
		Favorites:     ss.Favorites,
		pinger:        ss,
		closer:        ss.Close,
	}
}

// NewMemory returns a migrated in-memory SQLite store.
func NewMemory() (*Store, error) {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	return fromGorm("sqlite", sqlstore.New(db))
}
