package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/spotifydash/internal/cache"
	"example.com/spotifydash/internal/config"
	"example.com/spotifydash/internal/handlers"
	"example.com/spotifydash/internal/repository"
	"example.com/spotifydash/internal/scheduler"
	"example.com/spotifydash/internal/services"
	"example.com/spotifydash/internal/spotify"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
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

	client := spotify.NewClient(cfg.SpotifyAPIBaseURL, cfg.HTTPTimeout, log)
	auth := spotify.NewAuthenticator(cfg.SpotifyAccountsURL, cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.HTTPTimeout)

	responseCache := cache.New(5 * time.Minute)
	defer responseCache.Close()

	tokens := services.NewTokenService(db, auth, log)
	api := services.NewAPIService(client, responseCache, log)
	history := services.NewHistoryService(db, client, log)
	features := services.NewFeaturesService(db, client, tokens, log)

	jobs := scheduler.New(db, tokens, history, features, scheduler.Config{
		SyncInterval:   cfg.SyncInterval,
		EnrichInterval: cfg.EnrichInterval,
	}, log)
	jobs.Start(ctx)
	defer jobs.Stop()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := handlers.New(api, history, features, db, auth, cfg, log)
	h.Register(router)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
