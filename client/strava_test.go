package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(tokenURL string) *StravaClient {
	c := New(Config{ClientID: "12345", ClientSecret: "s3cret"})
	c.TokenURL = tokenURL
	return c
}

func TestAuthCodeURL(t *testing.T) {
	c := New(Config{ClientID: "12345", ClientSecret: "s3cret"})

	parsed, err := url.Parse(c.AuthCodeURL())
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "12345", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, DefaultRedirectURI, q.Get("redirect_uri"))
	assert.Equal(t, "force", q.Get("approval_prompt"))
	assert.Equal(t, "read,activity:read", q.Get("scope"))
	// The secret never appears in the authorize URL.
	assert.NotContains(t, c.AuthCodeURL(), "s3cret")
}

func TestExchangeCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		r.ParseForm()
		assert.Equal(t, "ABC123", r.FormValue("code"))
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "12345", r.FormValue("client_id"))
		assert.Equal(t, "s3cret", r.FormValue("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "T1",
			"refresh_token": "R1",
			"expires_at":    time.Now().Unix() + 21600,
			"athlete": map[string]interface{}{
				"id":        42,
				"firstname": "Trail",
				"lastname":  "Runner",
			},
		})
	}))
	defer server.Close()

	token, err := newTestClient(server.URL).ExchangeCode(context.Background(), "ABC123")

	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
	assert.Equal(t, "R1", token.RefreshToken)
	require.NotNil(t, token.Athlete)
	assert.Equal(t, int64(42), token.Athlete.ID)
	assert.Equal(t, "Trail", token.Athlete.FirstName)
}

func TestExchangeCode_ApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Bad Request"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ExchangeCode(context.Background(), "expired-code")

	require.Error(t, err)
	var exchErr *ExchangeError
	require.True(t, errors.As(err, &exchErr))
	assert.Equal(t, http.StatusBadRequest, exchErr.Status)
	assert.Contains(t, exchErr.Message, "Bad Request")
}

func TestRefreshToken_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		assert.Equal(t, "my-refresh-token", r.FormValue("refresh_token"))
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "new-access-token",
			"refresh_token": "new-refresh-token",
			"expires_in":    7200,
		})
	}))
	defer server.Close()

	token, err := newTestClient(server.URL).RefreshToken(context.Background(), "my-refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "new-access-token", token.AccessToken)
	assert.Equal(t, "new-refresh-token", token.RefreshToken)
	// expires_in is normalized to an absolute expiry.
	assert.Greater(t, token.ExpiresAt, time.Now().Unix())
}

func TestRefreshToken_ApiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_description": "The provided refresh token is invalid or expired",
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).RefreshToken(context.Background(), "bad-token")

	require.Error(t, err)
	var refErr *RefreshError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, http.StatusBadRequest, refErr.Status)
	assert.Contains(t, refErr.Message, "invalid or expired")
}

func TestPostTokenForm_UnparseableSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ExchangeCode(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token response")
}
