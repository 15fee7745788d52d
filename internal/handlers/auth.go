package handlers

import (
	"net/http"

	"example.com/spotifydash/internal/models"

	"github.com/gin-gonic/gin"
)

/* ---------- auth callback ---------- */

// AuthCallbackRedirect handles the browser leg of the authorization-code
// flow: exchange the code, hand the access token to the frontend via a
// cookie, redirect.
func (h *Handlers) AuthCallbackRedirect(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.log.Error().Str("error", errParam).Msg("spotify authorization error")
		c.Redirect(http.StatusFound, h.cfg.FrontendURL+"/callback?error="+errParam)
		return
	}
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, h.cfg.FrontendURL+"/callback?error=no_code")
		return
	}

	tok, err := h.auth.ExchangeCode(c.Request.Context(), code, h.cfg.SpotifyRedirectURI)
	if err != nil {
		h.log.Error().Err(err).Msg("auth code exchange failed")
		c.Redirect(http.StatusFound, h.cfg.FrontendURL+"/callback?error=exchange_failed")
		return
	}

	maxAge := tok.ExpiresIn
	if maxAge == 0 {
		maxAge = 3600
	}
	c.SetCookie("spotify_access_token", tok.AccessToken, maxAge, "/", "", true, false)
	c.Redirect(http.StatusFound, h.cfg.FrontendURL+"/callback?success=true")
}

// AuthCallback is the API leg: exchange the code, register the user and
// their refresh token, return the token payload.
func (h *Handlers) AuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is required"})
		return
	}
	redirectURI := c.DefaultQuery("redirect_uri", h.cfg.SpotifyRedirectURI)

	ctx := c.Request.Context()
	tok, err := h.auth.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		h.fail(c, err)
		return
	}

	profile, err := h.api.CurrentUser(ctx, tok.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.repo.UpsertUser(ctx, models.User{
		SpotifyID:    profile.ID,
		DisplayName:  profile.DisplayName,
		Email:        profile.Email,
		RefreshToken: tok.RefreshToken,
	}); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, tok)
}
