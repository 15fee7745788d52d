package repository

import (
	"context"
	"fmt"
	"time"

	"example.com/spotifydash/internal/models"
)

/* ---------- listening history ---------- */

// LatestPlayedAt returns the most recent played_at stored for a user.
// The second return is false when the user has no history yet.
func (d *DB) LatestPlayedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	var latest *time.Time
	query := `SELECT MAX(played_at) FROM listening_history WHERE user_id = $1`
	if err := d.pool.QueryRow(ctx, query, userID).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("get latest played_at for user %s: %w", userID, err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// ExistsEvent reports whether an event with this exact natural key is stored.
func (d *DB) ExistsEvent(ctx context.Context, userID, trackID string, playedAt time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
		SELECT 1 FROM listening_history
		WHERE user_id = $1 AND track_id = $2 AND played_at = $3)`
	if err := d.pool.QueryRow(ctx, query, userID, trackID, playedAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("check event exists: %w", err)
	}
	return exists, nil
}

// InsertEvent stores one event. A natural-key conflict is benign (the same
// play redelivered by upstream, or a concurrent tick) and reported as
// inserted=false, not as an error.
func (d *DB) InsertEvent(ctx context.Context, ev models.ListeningEvent) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		INSERT INTO listening_history
		      (user_id, track_id, track_name, artist_name, played_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		ev.UserID, ev.TrackID, ev.TrackName, ev.ArtistName, ev.PlayedAt)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// EventsByUserAndRange returns a user's events between from and to,
// newest first.
func (d *DB) EventsByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]models.ListeningEvent, error) {
	query := `
		SELECT id, user_id, track_id, track_name, artist_name, played_at
		FROM listening_history
		WHERE user_id = $1 AND played_at BETWEEN $2 AND $3
		ORDER BY played_at DESC`
	rows, err := d.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.ListeningEvent
	for rows.Next() {
		var ev models.ListeningEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.TrackID, &ev.TrackName, &ev.ArtistName, &ev.PlayedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
