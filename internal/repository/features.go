package repository

import (
	"context"
	"fmt"

	"example.com/spotifydash/internal/models"
)

/* ---------- track features ---------- */

// TracksMissingFeatures returns distinct recently played tracks for a user
// that have no track_features row yet, most recently played first.
func (d *DB) TracksMissingFeatures(ctx context.Context, userID string, limit int) ([]models.TrackRef, error) {
	query := `
		SELECT h.track_id, MAX(h.track_name), MAX(h.artist_name)
		FROM listening_history h
		WHERE h.user_id = $1
		  AND NOT EXISTS (SELECT 1 FROM track_features f WHERE f.track_id = h.track_id)
		GROUP BY h.track_id
		ORDER BY MAX(h.played_at) DESC
		LIMIT $2`
	rows, err := d.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query tracks missing features: %w", err)
	}
	defer rows.Close()

	var tracks []models.TrackRef
	for rows.Next() {
		var t models.TrackRef
		if err := rows.Scan(&t.ID, &t.Name, &t.ArtistName); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// EnrichedTrackIDs returns the subset of ids that already have a
// track_features row.
func (d *DB) EnrichedTrackIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	enriched := make(map[string]bool)
	if len(ids) == 0 {
		return enriched, nil
	}
	rows, err := d.pool.Query(ctx,
		`SELECT track_id FROM track_features WHERE track_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query enriched track ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		enriched[id] = true
	}
	return enriched, rows.Err()
}

// InsertFeatures stores one features row. A duplicate track id is benign;
// the first fetch wins and is never overwritten.
func (d *DB) InsertFeatures(ctx context.Context, f models.TrackFeatures) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO track_features
		      (track_id, track_name, artist_name,
		       acousticness, danceability, energy, valence, tempo, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (track_id) DO NOTHING`,
		f.TrackID, f.TrackName, f.ArtistName,
		f.Acousticness, f.Danceability, f.Energy, f.Valence, f.Tempo, f.FetchedAt)
	if err != nil {
		return fmt.Errorf("insert features for track %s: %w", f.TrackID, err)
	}
	return nil
}

// FeaturesByTrackIDs returns the stored features for the given ids.
func (d *DB) FeaturesByTrackIDs(ctx context.Context, ids []string) ([]models.TrackFeatures, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, track_id, track_name, artist_name,
		       acousticness, danceability, energy, valence, tempo, fetched_at
		FROM track_features
		WHERE track_id = ANY($1)`
	rows, err := d.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var features []models.TrackFeatures
	for rows.Next() {
		var f models.TrackFeatures
		if err := rows.Scan(&f.ID, &f.TrackID, &f.TrackName, &f.ArtistName,
			&f.Acousticness, &f.Danceability, &f.Energy, &f.Valence, &f.Tempo, &f.FetchedAt); err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}
