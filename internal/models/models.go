package models

import "time"

// ListeningEvent is one play of one track by one user, as reported by the
// recently-played feed. Rows are immutable; (UserID, TrackID, PlayedAt) is
// the natural key that absorbs upstream redelivery.
type ListeningEvent struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	ArtistName string    `json:"artist_name"`
	PlayedAt   time.Time `json:"played_at"`
}

// TrackFeatures holds the numeric audio descriptors for a single track.
// One row per track id, fetched once; upstream may omit any descriptor.
type TrackFeatures struct {
	ID           int64     `json:"id"`
	TrackID      string    `json:"track_id"`
	TrackName    string    `json:"track_name"`
	ArtistName   string    `json:"artist_name"`
	Acousticness *float64  `json:"acousticness"`
	Danceability *float64  `json:"danceability"`
	Energy       *float64  `json:"energy"`
	Valence      *float64  `json:"valence"`
	Tempo        *float64  `json:"tempo"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// TrackRef identifies a track that is a candidate for enrichment.
type TrackRef struct {
	ID         string `json:"track_id"`
	Name       string `json:"track_name"`
	ArtistName string `json:"artist_name"`
}

// AudioInsights aggregates the stored descriptors over a set of tracks.
// Each average covers only the tracks whose row carries that descriptor;
// an average is nil when none does.
type AudioInsights struct {
	TimeRange       string   `json:"time_range"`
	TrackCount      int      `json:"track_count"`
	EnrichedCount   int      `json:"enriched_count"`
	AvgAcousticness *float64 `json:"avg_acousticness"`
	AvgDanceability *float64 `json:"avg_danceability"`
	AvgEnergy       *float64 `json:"avg_energy"`
	AvgValence      *float64 `json:"avg_valence"`
	AvgTempo        *float64 `json:"avg_tempo"`
}

// User is a known account. The refresh token is stored as handed to us;
// encryption at rest is the credential layer's concern, not ours.
type User struct {
	SpotifyID    string    `json:"spotify_id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
