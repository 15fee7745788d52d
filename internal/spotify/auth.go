package spotify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Authenticator talks to the accounts service: refresh-token exchange and
// the authorization-code exchange used by the auth callback.
type Authenticator struct {
	accountsURL  string
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewAuthenticator(accountsURL, clientID, clientSecret string, timeout time.Duration) *Authenticator {
	return &Authenticator{
		accountsURL:  accountsURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
}

// Refresh exchanges a refresh token for a fresh access token. The provider
// may rotate the refresh token; when it does, TokenResponse.RefreshToken is
// set and the caller must persist it.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	return a.tokenRequest(ctx, data)
}

// ExchangeCode trades an authorization code for tokens.
func (a *Authenticator) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	return a.tokenRequest(ctx, data)
}

func (a *Authenticator) tokenRequest(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.accountsURL+"/api/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(a.clientID + ":" + a.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer res.Body.Close()

	if err := classify(res); err != nil {
		return nil, err
	}

	var body TokenResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &body, nil
}
