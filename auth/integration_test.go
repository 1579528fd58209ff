package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andynicholson/cricket/auth"
	"github.com/andynicholson/cricket/bridge"
	"github.com/andynicholson/cricket/client"
	"github.com/andynicholson/cricket/db"
	"github.com/andynicholson/cricket/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// interceptOpener simulates the authorization popup: it opens a popup window
// and drives the intercepted redirect through the host, the way the browser
// flow does.
type interceptOpener struct {
	h           *host.Host
	redirectURL string
}

func (o *interceptOpener) OpenAuthWindow(authorizeURL, correlation string) error {
	popup := o.h.Windows().Open(host.WindowPopup, correlation)
	o.h.InterceptRedirect(popup, o.redirectURL)
	return nil
}

func setupIntegration(t *testing.T, tokenHandler http.HandlerFunc) (*host.Host, *bridge.API, auth.CredentialStore) {
	t.Helper()

	server := httptest.NewServer(tokenHandler)
	t.Cleanup(server.Close)

	strava := client.New(client.Config{ClientID: "12345", ClientSecret: "s3cret"})
	strava.TokenURL = server.URL

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&db.Setting{}))
	repo := db.NewCredentialRepository(gormDB)

	reg := bridge.NewRegistry()
	events := bridge.NewEmitter()
	h := host.New("0.1.0", strava, reg, events, host.NewWindowRegistry())
	return h, bridge.NewAPI(reg, events), repo
}

func TestLoginEndToEnd_HappyPath(t *testing.T) {
	var exchangeCalls int32
	h, api, repo := setupIntegration(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchangeCalls, 1)
		r.ParseForm()
		assert.Equal(t, "ABC123", r.FormValue("code"))
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))

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
	})

	strava := client.New(client.Config{ClientID: "12345", ClientSecret: "s3cret"})
	opener := &interceptOpener{h: h, redirectURL: strava.RedirectURI() + "?code=ABC123"}

	m := auth.NewManager(repo, api, opener, strava.AuthCodeURL())
	m.Start()
	defer m.Close()

	// The main window is registered under the manager's correlation tag so
	// the interception can find its delivery target.
	mainWin := h.Windows().Open(host.WindowMain, m.Correlation())
	defer mainWin.Close()

	require.Equal(t, auth.StatusAnonymous, m.Status())
	require.NoError(t, m.Login())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.WaitForLogin(ctx))

	assert.Equal(t, auth.StatusAuthenticated, m.Status())
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchangeCalls), "exchange must happen exactly once")

	stored, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "T1", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)
	require.NotNil(t, stored.Athlete)
	assert.Equal(t, int64(42), stored.Athlete.ID)
}

func TestLoginEndToEnd_NoCodeCallbackDoesNothing(t *testing.T) {
	var exchangeCalls int32
	h, api, repo := setupIntegration(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchangeCalls, 1)
	})

	strava := client.New(client.Config{ClientID: "12345", ClientSecret: "s3cret"})
	opener := &interceptOpener{h: h, redirectURL: strava.RedirectURI()} // no code parameter

	m := auth.NewManager(repo, api, opener, strava.AuthCodeURL())
	m.Start()
	defer m.Close()

	mainWin := h.Windows().Open(host.WindowMain, m.Correlation())
	defer mainWin.Close()

	require.NoError(t, m.Login())

	// The dropped callback never resolves the pending login.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := m.WaitForLogin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, auth.StatusAuthenticating, m.Status())
	assert.Zero(t, atomic.LoadInt32(&exchangeCalls), "no exchange may be attempted")

	stored, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stored)
}
