package services

import (
	"context"
	"fmt"
	"time"

	"example.com/spotifydash/internal/models"
	"example.com/spotifydash/internal/spotify"

	"github.com/rs/zerolog"
)

const (
	recentlyPlayedLimit = 50
	unknownArtist       = "Unknown"
)

// HistoryStore is the persistence the synchronizer needs. The watermark is
// derived from the stored events (MAX played_at), never kept separately, so
// there is no dual-write to keep consistent. That couples correctness to
// events never being deleted; if retention is ever added this derivation
// has to change.
type HistoryStore interface {
	LatestPlayedAt(ctx context.Context, userID string) (time.Time, bool, error)
	ExistsEvent(ctx context.Context, userID, trackID string, playedAt time.Time) (bool, error)
	InsertEvent(ctx context.Context, ev models.ListeningEvent) (bool, error)
	EventsByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]models.ListeningEvent, error)
}

// RecentlyPlayedFetcher is the one upstream call the synchronizer makes.
type RecentlyPlayedFetcher interface {
	RecentlyPlayed(ctx context.Context, token string, limit int, after *time.Time) (*spotify.RecentlyPlayedResponse, error)
}

// HistoryService mirrors one user's recently-played feed into storage:
// watermark read, one bounded page of new events, idempotent dedup insert.
type HistoryService struct {
	store  HistoryStore
	client RecentlyPlayedFetcher
	log    zerolog.Logger
}

func NewHistoryService(store HistoryStore, client RecentlyPlayedFetcher, log zerolog.Logger) *HistoryService {
	return &HistoryService{store: store, client: client, log: log}
}

// Sync fetches events newer than the user's watermark and stores the ones
// not seen before. Returns the number of newly inserted events.
//
// The after bound is exactly the watermark, so upstream may redeliver the
// boundary event across overlapping poll windows; the natural-key check
// absorbs the overlap. Without a watermark the first sync is a snapshot of
// the most recent events, not a full backfill.
func (s *HistoryService) Sync(ctx context.Context, userID, token string) (int, error) {
	var after *time.Time
	if latest, ok, err := s.store.LatestPlayedAt(ctx, userID); err != nil {
		return 0, err
	} else if ok {
		after = &latest
	}

	page, err := s.client.RecentlyPlayed(ctx, token, recentlyPlayedLimit, after)
	if err != nil {
		return 0, fmt.Errorf("fetch recently played for user %s: %w", userID, err)
	}
	if len(page.Items) == 0 {
		return 0, nil
	}

	inserted := 0
	for _, item := range page.Items {
		// a single bad event must not abort the page
		if item.Track.ID == "" {
			s.log.Warn().Str("user_id", userID).Msg("skipping played item without track id")
			continue
		}
		playedAt, err := time.Parse(time.RFC3339Nano, item.PlayedAt)
		if err != nil {
			s.log.Warn().Str("user_id", userID).Str("track_id", item.Track.ID).
				Str("played_at", item.PlayedAt).Msg("skipping played item with unparseable timestamp")
			continue
		}

		exists, err := s.store.ExistsEvent(ctx, userID, item.Track.ID, playedAt)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		artistName := unknownArtist
		if len(item.Track.Artists) > 0 && item.Track.Artists[0].Name != "" {
			artistName = item.Track.Artists[0].Name
		}

		ok, err := s.store.InsertEvent(ctx, models.ListeningEvent{
			UserID:     userID,
			TrackID:    item.Track.ID,
			TrackName:  item.Track.Name,
			ArtistName: artistName,
			PlayedAt:   playedAt,
		})
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}

	if inserted > 0 {
		s.log.Info().Str("user_id", userID).Int("count", inserted).Msg("stored new plays")
	}
	return inserted, nil
}

// EventsByRange returns a user's stored events between from and to.
func (s *HistoryService) EventsByRange(ctx context.Context, userID string, from, to time.Time) ([]models.ListeningEvent, error) {
	return s.store.EventsByUserAndRange(ctx, userID, from, to)
}
