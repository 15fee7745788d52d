package services

import (
	"context"
	"errors"
	"testing"

	"example.com/spotifydash/internal/spotify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ---------- fakes ---------- */

type fakeCredentialStore struct {
	tokens map[string]string
	getErr error
}

func (f *fakeCredentialStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.tokens[userID], nil
}

func (f *fakeCredentialStore) SaveRefreshToken(_ context.Context, userID, token string) error {
	f.tokens[userID] = token
	return nil
}

type fakeExchanger struct {
	response *spotify.TokenResponse
	err      error
}

func (f *fakeExchanger) Refresh(_ context.Context, _ string) (*spotify.TokenResponse, error) {
	return f.response, f.err
}

/* ---------- tests ---------- */

func TestAccessTokenExchangesRefreshToken(t *testing.T) {
	store := &fakeCredentialStore{tokens: map[string]string{"u1": "refresh-1"}}
	svc := NewTokenService(store, &fakeExchanger{response: &spotify.TokenResponse{AccessToken: "fresh"}}, testLogger())

	token, err := svc.AccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestAccessTokenPersistsRotation(t *testing.T) {
	store := &fakeCredentialStore{tokens: map[string]string{"u1": "refresh-old"}}
	svc := NewTokenService(store, &fakeExchanger{response: &spotify.TokenResponse{
		AccessToken:  "fresh",
		RefreshToken: "refresh-new",
	}}, testLogger())

	_, err := svc.AccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-new", store.tokens["u1"], "a rotated refresh token must be persisted")
}

func TestAccessTokenMissingRefreshTokenIsUnavailable(t *testing.T) {
	store := &fakeCredentialStore{tokens: map[string]string{}}
	svc := NewTokenService(store, &fakeExchanger{}, testLogger())

	_, err := svc.AccessToken(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
}

func TestAccessTokenExchangeFailureIsUnavailable(t *testing.T) {
	store := &fakeCredentialStore{tokens: map[string]string{"u1": "refresh-1"}}
	svc := NewTokenService(store, &fakeExchanger{err: errors.New("accounts service down")}, testLogger())

	_, err := svc.AccessToken(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
}
