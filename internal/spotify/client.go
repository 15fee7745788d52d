// Package spotify is a thin typed wrapper over the provider's HTTP API.
// Every call carries a bearer credential and a bounded timeout. Failures
// are classified (unauthorized, rate limited, API, transport); retry policy
// belongs to callers, never to this package.
package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the given API base URL. The timeout bounds
// every call; a hung upstream endpoint must not stall a scheduler tick.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Get issues an authenticated GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path, token string, out any) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

// Post issues an authenticated POST with a JSON body and decodes the
// response into out (out may be nil).
func (c *Client) Post(ctx context.Context, path, token string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer res.Body.Close()

	if err := classify(res); err != nil {
		return err
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classify maps a non-2xx response onto the error taxonomy.
func classify(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		var retryAfter time.Duration
		if h := res.Header.Get("Retry-After"); h != "" {
			if secs, err := strconv.Atoi(h); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitedError{RetryAfter: retryAfter}
	}

	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return &APIError{Status: res.StatusCode, Body: string(data)}
}

/* ---------- typed calls ---------- */

// RecentlyPlayed fetches one page of a user's play events. after, when
// non-nil, is the exclusive lower bound; without it the page is simply the
// most recent events.
func (c *Client) RecentlyPlayed(ctx context.Context, token string, limit int, after *time.Time) (*RecentlyPlayedResponse, error) {
	path := "/me/player/recently-played?limit=" + strconv.Itoa(limit)
	if after != nil {
		path += "&after=" + strconv.FormatInt(after.UnixMilli(), 10)
	}
	var out RecentlyPlayedResponse
	if err := c.Get(ctx, path, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the profile the token belongs to.
func (c *Client) CurrentUser(ctx context.Context, token string) (*UserProfile, error) {
	var out UserProfile
	if err := c.Get(ctx, "/me", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopTracks fetches the user's top tracks for a time range.
func (c *Client) TopTracks(ctx context.Context, token, timeRange string, limit int) (*TopTracksResponse, error) {
	path := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d", url.QueryEscape(timeRange), limit)
	var out TopTracksResponse
	if err := c.Get(ctx, path, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopArtists fetches the user's top artists for a time range.
func (c *Client) TopArtists(ctx context.Context, token, timeRange string, limit int) (*TopArtistsResponse, error) {
	path := fmt.Sprintf("/me/top/artists?time_range=%s&limit=%d", url.QueryEscape(timeRange), limit)
	var out TopArtistsResponse
	if err := c.Get(ctx, path, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrackAudioFeatures fetches the audio descriptors for one track.
func (c *Client) TrackAudioFeatures(ctx context.Context, token, trackID string) (*AudioFeatures, error) {
	var out AudioFeatures
	if err := c.Get(ctx, "/audio-features/"+url.PathEscape(trackID), token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID string, req PlaylistRequest) (*Playlist, error) {
	var out Playlist
	if err := c.Post(ctx, "/users/"+url.PathEscape(userID)+"/playlists", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddTracksToPlaylist appends track URIs to a playlist.
func (c *Client) AddTracksToPlaylist(ctx context.Context, token, playlistID string, uris []string) error {
	body := map[string][]string{"uris": uris}
	return c.Post(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", token, body, nil)
}
