package handlers

import (
	"math"
	"net/http"
	"sort"
	"strconv"

	"example.com/spotifydash/internal/spotify"

	"github.com/gin-gonic/gin"
)

/* ---------- profile and top items ---------- */

func (h *Handlers) GetCurrentUser(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	profile, err := h.api.CurrentUser(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) GetTopTracks(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	timeRange, limit, ok := topItemsParams(c)
	if !ok {
		return
	}

	tracks, err := h.api.TopTracks(c.Request.Context(), token, timeRange, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tracks)
}

func (h *Handlers) GetTopArtists(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	timeRange, limit, ok := topItemsParams(c)
	if !ok {
		return
	}

	artists, err := h.api.TopArtists(c.Request.Context(), token, timeRange, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

func topItemsParams(c *gin.Context) (string, int, bool) {
	timeRange := c.DefaultQuery("time_range", defaultTimeRange)
	if !validTimeRange(timeRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return "", 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
		return "", 0, false
	}
	return timeRange, limit, true
}

/* ---------- genre analytics ---------- */

// GetGenreAnalytics builds a top-10 genre histogram over the user's top
// artists. Percentages are relative to the artist count, two decimals.
func (h *Handlers) GetGenreAnalytics(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	timeRange := c.DefaultQuery("time_range", defaultTimeRange)
	if !validTimeRange(timeRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	artists, err := h.api.TopArtists(c.Request.Context(), token, timeRange, defaultTopLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(artists.Items) == 0 {
		c.JSON(http.StatusOK, gin.H{"items": []gin.H{}})
		return
	}

	genreCount := make(map[string]int)
	for _, artist := range artists.Items {
		for _, genre := range artist.Genres {
			genreCount[genre]++
		}
	}

	type genreStat struct {
		Name       string  `json:"name"`
		Count      int     `json:"count"`
		Percentage float64 `json:"percentage"`
	}
	stats := make([]genreStat, 0, len(genreCount))
	for name, count := range genreCount {
		pct := float64(count) * 100.0 / float64(len(artists.Items))
		stats = append(stats, genreStat{
			Name:       name,
			Count:      count,
			Percentage: math.Round(pct*100) / 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > 10 {
		stats = stats[:10]
	}

	c.JSON(http.StatusOK, gin.H{"items": stats})
}

/* ---------- playlist generation ---------- */

type playlistGenerationRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	TimeRange      string `json:"time_range"`
	PublicPlaylist bool   `json:"public_playlist"`
}

// GeneratePlaylist turns the user's top tracks for a time range into a new
// playlist. The top-tracks read goes through the cache; the playlist
// creation and track add never do.
func (h *Handlers) GeneratePlaylist(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	var req playlistGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse request"})
		return
	}
	if req.TimeRange == "" {
		req.TimeRange = defaultTimeRange
	}
	if !validTimeRange(req.TimeRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.api.UserID(ctx, token)
	if err != nil {
		h.fail(c, err)
		return
	}

	tracks, err := h.api.TopTracks(ctx, token, req.TimeRange, defaultTopLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(tracks.Items) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "No tracks found for the selected time period",
			"name":    req.Name,
		})
		return
	}

	playlist, err := h.api.CreatePlaylist(ctx, token, userID, spotify.PlaylistRequest{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.PublicPlaylist,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	uris := make([]string, 0, len(tracks.Items))
	for _, t := range tracks.Items {
		uris = append(uris, t.URI)
	}
	if err := h.api.AddTracksToPlaylist(ctx, token, playlist.ID, uris); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            playlist.ID,
		"name":          playlist.Name,
		"description":   playlist.Description,
		"tracks_added":  len(uris),
		"external_urls": playlist.ExternalURLs,
	})
}
