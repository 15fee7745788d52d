// Package handlers is the HTTP glue: shape validation, token extraction
// and mapping service results onto responses. No sync or caching logic
// lives here.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"example.com/spotifydash/internal/config"
	"example.com/spotifydash/internal/repository"
	"example.com/spotifydash/internal/services"
	"example.com/spotifydash/internal/spotify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultTimeRange = "medium_term"
	defaultTopLimit  = 50
)

type Handlers struct {
	api      *services.APIService
	history  *services.HistoryService
	features *services.FeaturesService
	repo     *repository.DB
	auth     *spotify.Authenticator
	cfg      config.Config
	log      zerolog.Logger
}

func New(api *services.APIService, history *services.HistoryService, features *services.FeaturesService,
	repo *repository.DB, auth *spotify.Authenticator, cfg config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:      api,
		history:  history,
		features: features,
		repo:     repo,
		auth:     auth,
		cfg:      cfg,
		log:      log,
	}
}

// Register mounts all routes.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1/spotify")
	{
		api.GET("/me", h.GetCurrentUser)
		api.GET("/top/tracks", h.GetTopTracks)
		api.GET("/top/artists", h.GetTopArtists)
		api.GET("/analytics/genres", h.GetGenreAnalytics)
		api.POST("/playlists/generate", h.GeneratePlaylist)

		api.POST("/listening-history/poll", h.PollListeningHistory)
		api.GET("/listening-history", h.GetListeningHistory)

		api.POST("/audio-features/enrich", h.EnrichAudioFeatures)
		api.GET("/audio-features", h.GetAudioFeatures)
		api.GET("/audio-features/insights-from-top", h.GetAudioInsights)

		api.GET("/auth/callback", h.AuthCallbackRedirect)
		api.POST("/auth/callback", h.AuthCallback)
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

/* ---------- shared helpers ---------- */

// bearerToken pulls the access token out of the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func validTimeRange(tr string) bool {
	switch tr {
	case "short_term", "medium_term", "long_term":
		return true
	}
	return false
}

// fail maps the upstream error taxonomy onto status codes.
func (h *Handlers) fail(c *gin.Context, err error) {
	var rl *spotify.RateLimitedError
	var api *spotify.APIError

	switch {
	case errors.Is(err, spotify.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token invalid or expired"})
	case errors.As(err, &rl):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited by upstream"})
	case errors.As(err, &api):
		h.log.Error().Err(err).Msg("upstream error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
