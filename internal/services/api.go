package services

import (
	"context"
	"time"

	"example.com/spotifydash/internal/cache"
	"example.com/spotifydash/internal/spotify"

	"github.com/rs/zerolog"
)

// per-cache-name TTLs; short on purpose, the tokens behind the keys only
// live an hour anyway
const (
	userProfileTTL = 5 * time.Minute
	topTracksTTL   = 5 * time.Minute
	topArtistsTTL  = 5 * time.Minute
)

// APIReader is the subset of upstream calls the cached service fronts.
type APIReader interface {
	CurrentUser(ctx context.Context, token string) (*spotify.UserProfile, error)
	TopTracks(ctx context.Context, token, timeRange string, limit int) (*spotify.TopTracksResponse, error)
	TopArtists(ctx context.Context, token, timeRange string, limit int) (*spotify.TopArtistsResponse, error)
	CreatePlaylist(ctx context.Context, token, userID string, req spotify.PlaylistRequest) (*spotify.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, token, playlistID string, uris []string) error
}

// APIService memoizes upstream reads so a request's fan-out (a playlist
// build and the analytics view both need the same top-tracks page) hits
// upstream once. Keys combine a token fingerprint, the endpoint name and
// the call parameters. Writes are never cached.
type APIService struct {
	client APIReader
	cache  *cache.Cache
	log    zerolog.Logger
}

func NewAPIService(client APIReader, c *cache.Cache, log zerolog.Logger) *APIService {
	return &APIService{client: client, cache: c, log: log}
}

// CurrentUser returns the profile for the token, cached briefly.
func (s *APIService) CurrentUser(ctx context.Context, token string) (*spotify.UserProfile, error) {
	key := cache.Key("user", cache.Fingerprint(token))
	v, err := s.cache.GetOrCompute(key, userProfileTTL, func() (any, error) {
		return s.client.CurrentUser(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return v.(*spotify.UserProfile), nil
}

// UserID resolves the user id behind a token.
func (s *APIService) UserID(ctx context.Context, token string) (string, error) {
	profile, err := s.CurrentUser(ctx, token)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

// TopTracks returns the user's top tracks, cached briefly per
// (credential, time range, limit).
func (s *APIService) TopTracks(ctx context.Context, token, timeRange string, limit int) (*spotify.TopTracksResponse, error) {
	key := cache.Key("topTracks", cache.Fingerprint(token), timeRange, limit)
	v, err := s.cache.GetOrCompute(key, topTracksTTL, func() (any, error) {
		return s.client.TopTracks(ctx, token, timeRange, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.(*spotify.TopTracksResponse), nil
}

// TopArtists returns the user's top artists, cached briefly per
// (credential, time range, limit).
func (s *APIService) TopArtists(ctx context.Context, token, timeRange string, limit int) (*spotify.TopArtistsResponse, error) {
	key := cache.Key("topArtists", cache.Fingerprint(token), timeRange, limit)
	v, err := s.cache.GetOrCompute(key, topArtistsTTL, func() (any, error) {
		return s.client.TopArtists(ctx, token, timeRange, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.(*spotify.TopArtistsResponse), nil
}

// CreatePlaylist goes straight to upstream - a duplicate playlist is a
// real side effect, not a tolerable duplicate read.
func (s *APIService) CreatePlaylist(ctx context.Context, token, userID string, req spotify.PlaylistRequest) (*spotify.Playlist, error) {
	return s.client.CreatePlaylist(ctx, token, userID, req)
}

// AddTracksToPlaylist goes straight to upstream.
func (s *APIService) AddTracksToPlaylist(ctx context.Context, token, playlistID string, uris []string) error {
	return s.client.AddTracksToPlaylist(ctx, token, playlistID, uris)
}
