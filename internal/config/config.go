package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment.
type Config struct {
	ListenAddr  string
	DatabaseURL string
	FrontendURL string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyAPIBaseURL   string
	SpotifyAccountsURL  string
	SpotifyRedirectURI  string

	// upstream calls must never hang a scheduler tick
	HTTPTimeout time.Duration

	SyncInterval   time.Duration
	EnrichInterval time.Duration
}

// Load reads .env if present (optional - may not exist in production) and
// builds the config from environment variables.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found (this is normal in production environments)")
	}

	return Config{
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),

		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyAPIBaseURL:   getenv("SPOTIFY_API_BASE_URL", "https://api.spotify.com/v1"),
		SpotifyAccountsURL:  getenv("SPOTIFY_ACCOUNTS_URL", "https://accounts.spotify.com"),
		SpotifyRedirectURI:  getenv("SPOTIFY_REDIRECT_URI", "http://localhost:8080/api/v1/spotify/auth/callback"),

		HTTPTimeout: getduration("SPOTIFY_HTTP_TIMEOUT", 15*time.Second),

		SyncInterval:   getduration("SYNC_INTERVAL", 30*time.Minute),
		EnrichInterval: getduration("ENRICH_INTERVAL", 60*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s %q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}
