package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-backend/bootstrap"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	go func() {
		addr := ":" + app.Config.Port
		log.Info().Str("addr", addr).Str("env", app.Config.Env).Msg("Server running")
		log.Info().Msgf("Health check: http://localhost:%s/health/json", app.Config.Port)
		if err := app.Fiber.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := app.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("close connections")
	}
}
