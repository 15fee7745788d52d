package repository

import (
	"context"
	"fmt"

	"example.com/spotifydash/internal/models"
)

/* ---------- users ---------- */

// ListUserIDs returns every known user id, in stable order.
func (d *DB) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := d.pool.Query(ctx, `SELECT spotify_id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRefreshToken reads a user's stored refresh token. An empty token means
// the user never completed authorization, or it was revoked.
func (d *DB) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	var tok *string
	err := d.pool.QueryRow(ctx,
		`SELECT refresh_token FROM users WHERE spotify_id = $1`, userID).Scan(&tok)
	if err != nil {
		return "", fmt.Errorf("get refresh token for user %s: %w", userID, err)
	}
	if tok == nil {
		return "", nil
	}
	return *tok, nil
}

// SaveRefreshToken rotates a user's stored refresh token.
func (d *DB) SaveRefreshToken(ctx context.Context, userID, token string) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE users
		SET refresh_token = $2, updated_at = NOW()
		WHERE spotify_id = $1`,
		userID, token)
	if err != nil {
		return fmt.Errorf("save refresh token for user %s: %w", userID, err)
	}
	return nil
}

// UpsertUser creates or updates a user after an auth callback. The refresh
// token is only overwritten when a new one was issued.
func (d *DB) UpsertUser(ctx context.Context, u models.User) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (spotify_id, display_name, email, refresh_token)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (spotify_id) DO UPDATE
		  SET display_name  = EXCLUDED.display_name,
		      email         = EXCLUDED.email,
		      refresh_token = COALESCE(EXCLUDED.refresh_token, users.refresh_token),
		      updated_at    = NOW()`,
		u.SpotifyID, u.DisplayName, u.Email, u.RefreshToken)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.SpotifyID, err)
	}
	return nil
}
