package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, zerolog.New(os.Stderr))
}

func TestRecentlyPlayedDecodesPage(t *testing.T) {
	var gotPath, gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"track":{"id":"t1","name":"Song One","artists":[{"id":"a1","name":"Artist One"}]},
			 "played_at":"2024-01-01T00:00:00Z"}
		]}`))
	})

	after := time.UnixMilli(1704067200000).UTC()
	page, err := c.RecentlyPlayed(context.Background(), "tok", 50, &after)
	require.NoError(t, err)

	assert.Equal(t, "/me/player/recently-played?limit=50&after=1704067200000", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "t1", page.Items[0].Track.ID)
	assert.Equal(t, "Artist One", page.Items[0].Track.Artists[0].Name)
	assert.Equal(t, "2024-01-01T00:00:00Z", page.Items[0].PlayedAt)
}

func TestRecentlyPlayedOmitsAfterWithoutWatermark(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte(`{"items":[]}`))
	})

	_, err := c.RecentlyPlayed(context.Background(), "tok", 50, nil)
	require.NoError(t, err)
	assert.Equal(t, "/me/player/recently-played?limit=50", gotPath)
}

func TestClassifyUnauthorized(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.CurrentUser(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClassifyRateLimitedWithRetryAfter(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.TopTracks(context.Background(), "tok", "short_term", 50)
	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 17*time.Second, rl.RetryAfter)
	assert.True(t, IsRateLimited(err))
}

func TestClassifyAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broke"))
	})

	_, err := c.TopArtists(context.Background(), "tok", "long_term", 10)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, http.StatusBadGateway, api.Status)
	assert.Contains(t, api.Body, "upstream broke")
}

func TestCallTimeoutBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 50*time.Millisecond, zerolog.New(os.Stderr))

	start := time.Now()
	_, err := c.CurrentUser(context.Background(), "tok")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond, "call must be bounded by the client timeout")
}

func TestCreatePlaylistPostsBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/u1/playlists", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"p1","name":"Mix","external_urls":{"spotify":"https://example.com/p1"}}`))
	})

	playlist, err := c.CreatePlaylist(context.Background(), "tok", "u1", PlaylistRequest{Name: "Mix"})
	require.NoError(t, err)
	assert.Equal(t, "p1", playlist.ID)
}

func TestRefreshRotatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/api/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"rotated","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	a := NewAuthenticator(srv.URL, "cid", "secret", 2*time.Second)
	tok, err := a.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "rotated", tok.RefreshToken)
}

func TestRefreshRejectsMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	a := NewAuthenticator(srv.URL, "cid", "secret", 2*time.Second)
	_, err := a.Refresh(context.Background(), "r")
	assert.Error(t, err)
}
