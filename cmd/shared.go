package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andynicholson/cricket/auth"
	"github.com/andynicholson/cricket/bridge"
	"github.com/andynicholson/cricket/client"
	"github.com/andynicholson/cricket/db"
	"github.com/andynicholson/cricket/host"
	"github.com/andynicholson/cricket/pkg/clierr"
)

// services bundles the wired-up application for a command invocation: the
// privileged host on one side of the capability bridge, the auth manager on
// the other, and the credential store underneath.
type services struct {
	strava  *client.StravaClient
	host    *host.Host
	api     *bridge.API
	repo    db.CredentialRepository
	manager *auth.Manager
	mainWin *host.Window
}

// browserOpener opens the authorization popup as a real browser window via
// the host.
type browserOpener struct {
	h        *host.Host
	headless bool
}

func (o *browserOpener) OpenAuthWindow(authorizeURL, correlation string) error {
	return o.h.RunAuthorization(context.Background(), authorizeURL, correlation, o.headless)
}

// newServices builds the application graph. The Strava credentials are
// injected into the client here and nowhere else.
func newServices(cfg client.Config, headless bool) *services {
	strava := client.New(cfg)

	reg := bridge.NewRegistry()
	events := bridge.NewEmitter()
	h := host.New(version, strava, reg, events, host.NewWindowRegistry())
	api := bridge.NewAPI(reg, events)

	repo := db.NewCredentialRepository(db.Db)
	manager := auth.NewManager(repo, api, &browserOpener{h: h, headless: headless}, strava.AuthCodeURL())
	manager.Start()

	// The CLI acts as the application's main window; redirect delivery is
	// matched against this registration.
	mainWin := h.Windows().Open(host.WindowMain, manager.Correlation())

	// Strava budgets 100 API requests per 15 minutes.
	client.SetGlobalAPIRateLimit(100, 15*time.Minute)

	return &services{
		strava:  strava,
		host:    h,
		api:     api,
		repo:    repo,
		manager: manager,
		mainWin: mainWin,
	}
}

func (s *services) close() {
	s.mainWin.Close()
	s.manager.Close()
}

// accessToken fetches a fresh token from the manager, translating a forced
// logout into a user-facing error.
func (s *services) accessToken(ctx context.Context) (string, error) {
	token, err := s.manager.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			return "", clierr.New(clierr.Auth,
				"Your Strava session has expired. Run 'cricket connect' to reconnect.", err)
		}
		return "", clierr.New(clierr.Network, "Could not obtain an access token.", err)
	}
	return token, nil
}

func formatInt(n int64) string {
	return fmt.Sprintf("%d", n)
}

// formatDistance renders meters as kilometers.
func formatDistance(meters float64) string {
	return fmt.Sprintf("%.1f km", meters/1000)
}

// formatDuration renders seconds as h:mm:ss.
func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
