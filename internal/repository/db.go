package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the pgx pool with typed query methods for the three tables the
// engine owns: listening_history, track_features and users.
type DB struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, dsn string, log zerolog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var currentDB, currentUser string
	if err := pool.QueryRow(ctx, "SELECT current_database(), current_user").Scan(&currentDB, &currentUser); err != nil {
		pool.Close()
		return nil, fmt.Errorf("check database connection: %w", err)
	}
	log.Info().Str("database", currentDB).Str("user", currentUser).Msg("connected to database")

	return &DB{pool: pool, log: log}, nil
}

// Close releases the underlying pool.
func (d *DB) Close() {
	d.pool.Close()
}

// EnsureSchema creates the required tables and indexes if they don't exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	historyTable := `
	CREATE TABLE IF NOT EXISTS listening_history (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		track_id VARCHAR(255) NOT NULL,
		track_name TEXT NOT NULL,
		artist_name TEXT NOT NULL,
		played_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE(user_id, track_id, played_at)
	);`

	if _, err := d.pool.Exec(ctx, historyTable); err != nil {
		return fmt.Errorf("create listening_history table: %w", err)
	}

	featuresTable := `
	CREATE TABLE IF NOT EXISTS track_features (
		id SERIAL PRIMARY KEY,
		track_id VARCHAR(255) UNIQUE NOT NULL,
		track_name TEXT,
		artist_name TEXT,
		acousticness REAL,
		danceability REAL,
		energy REAL,
		valence REAL,
		tempo REAL,
		fetched_at TIMESTAMPTZ NOT NULL
	);`

	if _, err := d.pool.Exec(ctx, featuresTable); err != nil {
		return fmt.Errorf("create track_features table: %w", err)
	}

	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		spotify_id VARCHAR(255) PRIMARY KEY,
		display_name TEXT,
		email TEXT,
		refresh_token TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);`

	if _, err := d.pool.Exec(ctx, usersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// watermark reads are MAX(played_at) per user; keep that query indexed
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_history_user_played_at ON listening_history(user_id, played_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_features_fetched_at ON track_features(fetched_at);",
	}

	for _, indexSQL := range indexes {
		if _, err := d.pool.Exec(ctx, indexSQL); err != nil {
			d.log.Warn().Err(err).Msg("failed to create index")
		}
	}

	return nil
}
