package services

import (
	"context"
	"errors"
	"fmt"

	"example.com/spotifydash/internal/spotify"

	"github.com/rs/zerolog"
)

// ErrCredentialUnavailable means no usable access token could be obtained
// for a user. The scheduler skips the user for the tick.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// CredentialStore is the persistence the token service needs.
type CredentialStore interface {
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	SaveRefreshToken(ctx context.Context, userID, token string) error
}

// TokenExchanger performs the refresh-token exchange.
type TokenExchanger interface {
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenResponse, error)
}

// TokenService turns a user id into a currently valid short-lived access
// token via refresh-token exchange, persisting rotations.
type TokenService struct {
	store CredentialStore
	auth  TokenExchanger
	log   zerolog.Logger
}

func NewTokenService(store CredentialStore, auth TokenExchanger, log zerolog.Logger) *TokenService {
	return &TokenService{store: store, auth: auth, log: log}
}

// AccessToken obtains a fresh access token for userID. Any failure maps to
// ErrCredentialUnavailable so callers can treat "skip this user" uniformly.
func (s *TokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	refreshToken, err := s.store.GetRefreshToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}
	if refreshToken == "" {
		return "", fmt.Errorf("%w: user %s has no refresh token", ErrCredentialUnavailable, userID)
	}

	tok, err := s.auth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: refresh failed for user %s: %v", ErrCredentialUnavailable, userID, err)
	}

	// provider rotated the refresh token; losing it would strand the user
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		if err := s.store.SaveRefreshToken(ctx, userID, tok.RefreshToken); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("failed to persist rotated refresh token")
		}
	}

	return tok.AccessToken, nil
}
