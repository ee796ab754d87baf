// Package bootstrap assembles the application from configuration. It is
// shared by cmd/api and the serverless entry point in api/.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/infrastructure/imagehost"
	"marketplace-backend/internal/infrastructure/store"
	"marketplace-backend/internal/interfaces/router"
	"marketplace-backend/internal/pkg/logging"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisPingTimeout = 3 * time.Second

// App is the assembled server with the resources it owns.
type App struct {
	Fiber  *fiber.App
	Config *config.Config
	Store  *store.Store
	Redis  *redis.Client
}

// New loads config, connects the database and optional Redis, and builds the router.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Env, cfg.LogLevel)

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	rdb := connectRedis(ctx, cfg.RedisURL)

	images, err := imagehost.New(ctx, cfg)
	if err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("image host: %w", err)
	}
	if images == nil {
		log.Warn().Msg("no image host configured, image uploads are disabled")
	}

	var geo geocoding.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geocoding.NewGoogle(cfg.GoogleMapsAPIKey)
		if err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		geo = g
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY not set, zip codes will not be geocoded")
	}

	app := router.CreateApp(cfg, router.Deps{
		Store:    st,
		Redis:    rdb,
		Geocoder: geo,
		Images:   images,
		Metrics:  metrics.New(),
	})
	return &App{Fiber: app, Config: cfg, Store: st, Redis: rdb}, nil
}

// Close releases the database and Redis connections.
func (a *App) Close(ctx context.Context) error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.Store.Close(ctx)
}

// connectRedis returns nil when url is empty or Redis does not answer; the
// API then runs without token revocation and health counters.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Warn().Msg("REDIS_URL not set, logout revocation and health stats are disabled")
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Error().Err(err).Msg("invalid REDIS_URL, continuing without Redis")
		return nil
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Msg("Redis connection failed, continuing without Redis")
		_ = rdb.Close()
		return nil
	}
	log.Info().Msg("Redis connected")
	return rdb
}
