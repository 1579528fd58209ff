package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Default Strava endpoints. The URL fields on StravaClient exist so tests can
// point the client at a local server.
const (
	DefaultAuthorizeURL = "https://www.strava.com/oauth/authorize"
	DefaultTokenURL     = "https://www.strava.com/oauth/token"
	DefaultAPIBaseURL   = "https://www.strava.com/api/v3"

	// DefaultRedirectURI is the callback the authorization popup is sent to.
	// It is not a reachable resource; the navigation is intercepted client-side.
	DefaultRedirectURI = "http://localhost:5173/auth/strava/callback"

	// CallbackPath is the path component of the redirect URI that interception
	// matches on.
	CallbackPath = "/auth/strava/callback"

	// OAuthScope requested during authorization.
	OAuthScope = "read,activity:read"
)

// Config carries the application's Strava client credentials. It is injected
// once at process start and must stay on the privileged side; nothing here is
// ever sent over the capability bridge.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// StravaClient performs the token exchanges that require the client secret,
// and the authenticated data-API calls.
type StravaClient struct {
	cfg Config

	AuthorizeURL string
	TokenURL     string
	APIBaseURL   string

	httpClient *http.Client
}

// New creates a StravaClient with the default endpoints.
func New(cfg Config) *StravaClient {
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}
	return &StravaClient{
		cfg:          cfg,
		AuthorizeURL: DefaultAuthorizeURL,
		TokenURL:     DefaultTokenURL,
		APIBaseURL:   DefaultAPIBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthCodeURL builds the authorization page URL opened in the popup window.
func (c *StravaClient) AuthCodeURL() string {
	params := url.Values{
		"client_id":       {c.cfg.ClientID},
		"response_type":   {"code"},
		"redirect_uri":    {c.cfg.RedirectURI},
		"approval_prompt": {"force"},
		"scope":           {OAuthScope},
	}
	return c.AuthorizeURL + "?" + params.Encode()
}

// RedirectURI returns the configured callback URI.
func (c *StravaClient) RedirectURI() string { return c.cfg.RedirectURI }

// ExchangeCode swaps a fresh authorization code for tokens. The exchange is
// never cached; a code is single-use.
func (c *StravaClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	token, status, err := c.postTokenForm(ctx, form)
	if err != nil {
		if status != 0 {
			return nil, &ExchangeError{Status: status, Message: err.Error()}
		}
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	log.Info().Int64("expires_at", token.ExpiresAt).Msg("Authorization code exchanged successfully")
	return token, nil
}

// RefreshToken mints a new access token from a refresh token. Strava may
// rotate the refresh token; the response always carries the one to keep.
func (c *StravaClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	token, status, err := c.postTokenForm(ctx, form)
	if err != nil {
		if status != 0 {
			return nil, &RefreshError{Status: status, Message: err.Error()}
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	log.Info().Int64("expires_at", token.ExpiresAt).Msg("Access token refreshed successfully")
	return token, nil
}

// postTokenForm sends a form-encoded POST to the token endpoint. On a non-2xx
// response it returns the HTTP status along with the provider's message.
func (c *StravaClient) postTokenForm(ctx context.Context, form url.Values) (*TokenResponse, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := providerMessage(body)
		log.Error().Int("status", resp.StatusCode).Str("message", msg).Msg("Token endpoint returned an error")
		return nil, resp.StatusCode, fmt.Errorf("%s", msg)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, 0, fmt.Errorf("failed to parse token response: %w", err)
	}
	token.normalize(time.Now())
	return &token, 0, nil
}

// providerMessage extracts a human-readable message from an error body.
func providerMessage(body []byte) string {
	var payload struct {
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.ErrorDescription != "" {
			return payload.ErrorDescription
		}
	}
	return string(body)
}
