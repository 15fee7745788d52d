// Command init-db creates the database schema without starting the server.
// Useful for fresh environments and for rebuilding after a wipe.
package main

import (
	"context"
	"os"

	"example.com/spotifydash/internal/config"
	"example.com/spotifydash/internal/repository"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()

	ctx := context.Background()
	db, err := repository.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	log.Info().Msg("database schema verified/created")
}
