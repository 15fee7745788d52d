package spotify

/* ─── recently-played ─────────────────────────────────────────── */

// ArtistRef is the artist stub embedded in track objects.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayedTrack is the track object embedded in a recently-played item.
type PlayedTrack struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	URI     string      `json:"uri"`
	Artists []ArtistRef `json:"artists"`
}

// PlayedItem is one play event. PlayedAt stays a string here so one item
// with a broken timestamp can be skipped without failing the whole page.
type PlayedItem struct {
	Track    PlayedTrack `json:"track"`
	PlayedAt string      `json:"played_at"`
}

type RecentlyPlayedResponse struct {
	Items   []PlayedItem `json:"items"`
	Next    *string      `json:"next"`
	Cursors struct {
		After  *string `json:"after"`
		Before *string `json:"before"`
	} `json:"cursors"`
}

/* ─── top tracks / artists ────────────────────────────────────── */

type TopTrack struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	URI     string      `json:"uri"`
	Artists []ArtistRef `json:"artists"`
}

type TopTracksResponse struct {
	Items []TopTrack `json:"items"`
	Total int        `json:"total"`
}

type TopArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type TopArtistsResponse struct {
	Items []TopArtist `json:"items"`
	Total int         `json:"total"`
}

/* ─── profile, features, playlists ────────────────────────────── */

type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// AudioFeatures is the per-track descriptor payload. Every descriptor is
// optional; upstream omits fields for some tracks and we store what we get.
type AudioFeatures struct {
	ID           string   `json:"id"`
	Acousticness *float64 `json:"acousticness"`
	Danceability *float64 `json:"danceability"`
	Energy       *float64 `json:"energy"`
	Valence      *float64 `json:"valence"`
	Tempo        *float64 `json:"tempo"`
}

type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type Playlist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ExternalURLs map[string]string `json:"external_urls"`
}

/* ─── accounts service ────────────────────────────────────────── */

// TokenResponse is the accounts-service token payload. RefreshToken is only
// set when the provider rotated it; the caller must persist a rotation.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}
