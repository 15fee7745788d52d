package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// cap on an on-demand enrichment batch
const maxEnrichLimit = 100

/* ---------- listening history ---------- */

// PollListeningHistory runs one synchronous sync for the caller. The
// scheduled jobs cover the steady state; this endpoint exists for
// on-demand refresh after login.
func (h *Handlers) PollListeningHistory(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.api.UserID(ctx, token)
	if err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.history.Sync(ctx, userID, token); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listening history updated"})
}

// GetListeningHistory returns the caller's stored events for a date range,
// defaulting to the last 30 days.
func (h *Handlers) GetListeningHistory(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	ctx := c.Request.Context()
	userID, err := h.api.UserID(ctx, token)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := time.Now()
	from, ok := queryTime(c, "from", now.AddDate(0, 0, -30))
	if !ok {
		return
	}
	to, ok := queryTime(c, "to", now)
	if !ok {
		return
	}

	events, err := h.history.EventsByRange(ctx, userID, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": events, "count": len(events)})
}

func queryTime(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return fallback, true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be RFC3339"})
		return time.Time{}, false
	}
	return t, true
}

/* ---------- audio features ---------- */

// EnrichAudioFeatures fetches missing descriptors on demand. With a
// time_range it targets the caller's current top tracks; without one it
// works through tracks from the caller's listening history that have no
// features row yet.
func (h *Handlers) EnrichAudioFeatures(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > maxEnrichLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	ctx := c.Request.Context()
	var count int
	if timeRange := c.Query("time_range"); timeRange != "" {
		if !validTimeRange(timeRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range"})
			return
		}
		count, err = h.features.EnrichForTopTracks(ctx, token, timeRange, limit)
	} else {
		userID, uerr := h.api.UserID(ctx, token)
		if uerr != nil {
			h.fail(c, uerr)
			return
		}
		count, err = h.features.EnrichMissing(ctx, userID, limit)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enriched": count})
}

// GetAudioInsights aggregates the stored descriptors over the caller's top
// tracks for a time range.
func (h *Handlers) GetAudioInsights(c *gin.Context) {
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

	insights, err := h.features.InsightsForTopTracks(c.Request.Context(), token, timeRange, defaultTopLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, insights)
}

// GetAudioFeatures returns stored features for a comma-separated id set.
func (h *Handlers) GetAudioFeatures(c *gin.Context) {
	if _, ok := bearerToken(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	features, err := h.features.Features(c.Request.Context(), ids)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": features, "count": len(features)})
}
