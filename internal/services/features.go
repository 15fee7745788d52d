package services

import (
	"context"
	"fmt"
	"time"

	"example.com/spotifydash/internal/models"
	"example.com/spotifydash/internal/spotify"

	"github.com/rs/zerolog"
)

// FeatureStore is the persistence the enrichment engine needs.
type FeatureStore interface {
	TracksMissingFeatures(ctx context.Context, userID string, limit int) ([]models.TrackRef, error)
	EnrichedTrackIDs(ctx context.Context, ids []string) (map[string]bool, error)
	InsertFeatures(ctx context.Context, f models.TrackFeatures) error
	FeaturesByTrackIDs(ctx context.Context, ids []string) ([]models.TrackFeatures, error)
}

// FeatureFetcher is the upstream feature-lookup call. These are per-track
// write-oriented lookups and deliberately bypass the response cache.
type FeatureFetcher interface {
	TrackAudioFeatures(ctx context.Context, token, trackID string) (*spotify.AudioFeatures, error)
	TopTracks(ctx context.Context, token, timeRange string, limit int) (*spotify.TopTracksResponse, error)
}

// CredentialProvider yields a currently valid access token for a user.
type CredentialProvider interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// FeaturesService fetches audio descriptors for tracks that don't have
// them yet. A track is enriched at most once; a single failed lookup never
// fails the batch.
type FeaturesService struct {
	store  FeatureStore
	client FeatureFetcher
	tokens CredentialProvider
	log    zerolog.Logger
}

func NewFeaturesService(store FeatureStore, client FeatureFetcher, tokens CredentialProvider, log zerolog.Logger) *FeaturesService {
	return &FeaturesService{store: store, client: client, tokens: tokens, log: log}
}

// EnrichMissing finds up to limit recently played tracks for userID that
// lack features and fetches them. Returns the number of tracks enriched.
func (s *FeaturesService) EnrichMissing(ctx context.Context, userID string, limit int) (int, error) {
	candidates, err := s.store.TracksMissingFeatures(ctx, userID, limit)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return 0, err
	}

	return s.fetchAndStore(ctx, token, candidates)
}

// EnrichForTopTracks enriches whatever of the user's current top tracks is
// not enriched yet. The caller supplies the credential (this path is driven
// by an on-demand request carrying a bearer token).
func (s *FeaturesService) EnrichForTopTracks(ctx context.Context, token, timeRange string, limit int) (int, error) {
	top, err := s.client.TopTracks(ctx, token, timeRange, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch top tracks: %w", err)
	}
	if len(top.Items) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(top.Items))
	for _, t := range top.Items {
		ids = append(ids, t.ID)
	}
	enriched, err := s.store.EnrichedTrackIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	var candidates []models.TrackRef
	for _, t := range top.Items {
		if enriched[t.ID] {
			continue
		}
		artistName := unknownArtist
		if len(t.Artists) > 0 && t.Artists[0].Name != "" {
			artistName = t.Artists[0].Name
		}
		candidates = append(candidates, models.TrackRef{ID: t.ID, Name: t.Name, ArtistName: artistName})
	}

	return s.fetchAndStore(ctx, token, candidates)
}

// Features returns stored descriptors for the given track ids.
func (s *FeaturesService) Features(ctx context.Context, ids []string) ([]models.TrackFeatures, error) {
	return s.store.FeaturesByTrackIDs(ctx, ids)
}

// InsightsForTopTracks aggregates the stored descriptors over the user's
// current top tracks. Only already-enriched tracks contribute; this is a
// read over stored rows and never triggers a per-track upstream lookup.
func (s *FeaturesService) InsightsForTopTracks(ctx context.Context, token, timeRange string, limit int) (*models.AudioInsights, error) {
	top, err := s.client.TopTracks(ctx, token, timeRange, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top tracks: %w", err)
	}

	insights := &models.AudioInsights{TimeRange: timeRange, TrackCount: len(top.Items)}
	if len(top.Items) == 0 {
		return insights, nil
	}

	ids := make([]string, 0, len(top.Items))
	for _, t := range top.Items {
		ids = append(ids, t.ID)
	}
	rows, err := s.store.FeaturesByTrackIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	insights.EnrichedCount = len(rows)

	avg := func(pick func(models.TrackFeatures) *float64) *float64 {
		var sum float64
		n := 0
		for _, row := range rows {
			if v := pick(row); v != nil {
				sum += *v
				n++
			}
		}
		if n == 0 {
			return nil
		}
		mean := sum / float64(n)
		return &mean
	}
	insights.AvgAcousticness = avg(func(r models.TrackFeatures) *float64 { return r.Acousticness })
	insights.AvgDanceability = avg(func(r models.TrackFeatures) *float64 { return r.Danceability })
	insights.AvgEnergy = avg(func(r models.TrackFeatures) *float64 { return r.Energy })
	insights.AvgValence = avg(func(r models.TrackFeatures) *float64 { return r.Valence })
	insights.AvgTempo = avg(func(r models.TrackFeatures) *float64 { return r.Tempo })

	return insights, nil
}

func (s *FeaturesService) fetchAndStore(ctx context.Context, token string, candidates []models.TrackRef) (int, error) {
	stored := 0
	for _, track := range candidates {
		feats, err := s.client.TrackAudioFeatures(ctx, token, track.ID)
		if err != nil {
			// one track's failed lookup must not fail the rest
			s.log.Warn().Err(err).Str("track_id", track.ID).Msg("audio feature lookup failed")
			continue
		}

		row := models.TrackFeatures{
			TrackID:      track.ID,
			TrackName:    track.Name,
			ArtistName:   track.ArtistName,
			Acousticness: feats.Acousticness,
			Danceability: feats.Danceability,
			Energy:       feats.Energy,
			Valence:      feats.Valence,
			Tempo:        feats.Tempo,
			FetchedAt:    time.Now(),
		}
		if err := s.store.InsertFeatures(ctx, row); err != nil {
			s.log.Error().Err(err).Str("track_id", track.ID).Msg("failed to store audio features")
			continue
		}
		stored++
	}

	if stored > 0 {
		s.log.Info().Int("count", stored).Msg("stored audio features")
	}
	return stored, nil
}
