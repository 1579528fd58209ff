package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andynicholson/cricket/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Status is the client-visible authentication state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticating
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticating:
		return "AUTHENTICATING"
	case StatusAuthenticated:
		return "AUTHENTICATED"
	default:
		return "ANONYMOUS"
	}
}

var (
	// ErrBridgeUnavailable means the capability bridge was not wired at call
	// time; login refuses to start rather than opening a window that can
	// never complete.
	ErrBridgeUnavailable = errors.New("capability bridge is not available")

	// ErrSessionExpired means no valid or refreshable token exists. The
	// caller must treat it as a forced logout, not a retryable failure.
	ErrSessionExpired = errors.New("session expired; reconnect your Strava account")
)

// refreshMargin is the safety window before expiry inside which a token is
// refreshed rather than used.
const refreshMargin = 5 * time.Minute

// Manager owns the authentication state machine and mediates every
// authenticated API call with a proactive token refresh. The credential store
// is the durable owner of tokens; the manager holds a cached copy and
// reconciles it against the store whenever the cached expiry enters the
// refresh margin.
type Manager struct {
	store        CredentialStore
	api          Bridge
	opener       WindowOpener
	authorizeURL string
	correlation  string

	mu     sync.Mutex
	status Status
	creds  *db.Credentials

	refreshGroup singleflight.Group
	unsubscribe  func()
	loginDone    chan error
}

// NewManager creates a Manager. If the store already holds a usable
// credential record, the state starts out AUTHENTICATED without a network
// round-trip; an expired token is caught by the next API call.
func NewManager(store CredentialStore, api Bridge, opener WindowOpener, authorizeURL string) *Manager {
	m := &Manager{
		store:        store,
		api:          api,
		opener:       opener,
		authorizeURL: authorizeURL,
		correlation:  uuid.NewString(),
		status:       StatusAnonymous,
	}

	if store != nil {
		creds, err := store.Get(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("Failed to load stored credentials")
		} else if creds != nil {
			m.creds = creds
			m.status = StatusAuthenticated
			log.Info().Msg("Restored Strava session from stored credentials")
		}
	}
	return m
}

// Start subscribes the manager to the bridge's auth-callback event. Call
// Close to release the subscription.
func (m *Manager) Start() {
	if m.api == nil {
		return
	}
	m.unsubscribe = m.api.OnAuthCallback(func(code string) {
		if err := m.HandleAuthCallback(code); err != nil {
			log.Error().Err(err).Msg("Authorization callback handling failed")
		}
	})
}

// Close unsubscribes the manager from the bridge.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Status returns the current authentication state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Athlete returns the stored athlete summary, or nil when not connected.
func (m *Manager) Athlete() *db.Athlete {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil
	}
	return m.creds.Athlete
}

// Correlation is the identifier stamped on authorization popups opened for
// this manager.
func (m *Manager) Correlation() string { return m.correlation }

// Login opens the authorization popup and moves the state machine to
// AUTHENTICATING. A login attempt while one is already pending is a no-op.
// The popup runs in the background; use WaitForLogin to block on the result.
func (m *Manager) Login() error {
	if m.api == nil {
		log.Error().Msg("Cannot start login: capability bridge is not available")
		return ErrBridgeUnavailable
	}

	m.mu.Lock()
	if m.status == StatusAuthenticating {
		m.mu.Unlock()
		log.Warn().Msg("Login already in progress; ignoring")
		return nil
	}
	m.status = StatusAuthenticating
	m.loginDone = make(chan error, 1)
	m.mu.Unlock()

	log.Info().Msg("Opening Strava authorization window")
	go func() {
		if err := m.opener.OpenAuthWindow(m.authorizeURL, m.correlation); err != nil {
			// Abandoned window: the state machine stays AUTHENTICATING with
			// no further transition, per the cancellation model.
			log.Warn().Err(err).Msg("Authorization window closed without completing")
		}
	}()
	return nil
}

// WaitForLogin blocks until the pending login attempt completes or the
// context expires. An abandoned popup never completes; bound the wait with
// the context.
func (m *Manager) WaitForLogin(ctx context.Context) error {
	m.mu.Lock()
	done := m.loginDone
	m.mu.Unlock()
	if done == nil {
		return fmt.Errorf("no login attempt in progress")
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleAuthCallback exchanges an intercepted authorization code for tokens,
// persists the credential record, and activates the session. On failure the
// state reverts to ANONYMOUS and the error is returned for the caller to
// surface.
func (m *Manager) HandleAuthCallback(code string) error {
	if m.api == nil {
		return ErrBridgeUnavailable
	}

	token, err := m.api.ExchangeStravaCode(context.Background(), code)
	if err != nil {
		m.failLogin(fmt.Errorf("could not connect account: %w", err))
		return err
	}

	creds := &db.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		Athlete:      token.Athlete,
	}
	if err := m.store.Save(context.Background(), creds); err != nil {
		m.failLogin(err)
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	m.mu.Lock()
	m.creds = creds
	m.status = StatusAuthenticated
	done := m.loginDone
	m.mu.Unlock()

	if done != nil {
		select {
		case done <- nil:
		default:
		}
	}
	log.Info().Msg("Strava account connected")
	return nil
}

func (m *Manager) failLogin(err error) {
	m.mu.Lock()
	m.status = StatusAnonymous
	done := m.loginDone
	m.mu.Unlock()

	if done != nil {
		select {
		case done <- err:
		default:
		}
	}
}

// Logout clears the credential store and the in-memory session. It never
// fails; a store error is logged and the in-memory state is dropped anyway.
func (m *Manager) Logout() {
	if m.store != nil {
		if err := m.store.Clear(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to clear stored credentials")
		}
	}

	m.mu.Lock()
	m.creds = nil
	m.status = StatusAnonymous
	m.mu.Unlock()
	log.Info().Msg("Disconnected from Strava")
}

// AccessToken returns a token valid for at least the refresh margin,
// refreshing it first when expiry is imminent. Concurrent callers share a
// single refresh; Strava rotates the refresh token on every refresh, so two
// parallel calls would invalidate each other's result.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	if creds == nil {
		return "", ErrSessionExpired
	}
	if tokenFresh(creds.ExpiresAt) {
		return creds.AccessToken, nil
	}

	// The cached copy is stale; reconcile against the store before going to
	// the network, in case another process already refreshed.
	if stored, err := m.store.Get(ctx); err == nil && stored != nil {
		m.mu.Lock()
		m.creds = stored
		m.mu.Unlock()
		creds = stored
		if tokenFresh(creds.ExpiresAt) {
			return creds.AccessToken, nil
		}
	}

	if creds.RefreshToken == "" {
		// Nothing to refresh with; force logout without a network call.
		log.Warn().Msg("Credential record has no refresh token; forcing logout")
		m.forceLogout()
		return "", ErrSessionExpired
	}

	result, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refreshLocked(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// refreshLocked performs one refresh round-trip. Runs inside the singleflight
// group; late arrivals that piggybacked on a finished flight re-check the
// cache instead of refreshing again.
func (m *Manager) refreshLocked(ctx context.Context) (string, error) {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	if creds == nil {
		return "", ErrSessionExpired
	}
	if tokenFresh(creds.ExpiresAt) {
		return creds.AccessToken, nil
	}

	token, err := m.api.RefreshStravaToken(ctx, creds.RefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("Token refresh rejected; forcing logout")
		m.forceLogout()
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	// Atomic replace of all three token fields: the provider may have rotated
	// the refresh token, and a stale one must not survive.
	next := &db.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
		Athlete:      creds.Athlete,
	}
	if err := m.store.Save(ctx, next); err != nil {
		return "", fmt.Errorf("failed to persist refreshed credentials: %w", err)
	}

	m.mu.Lock()
	m.creds = next
	m.mu.Unlock()
	return next.AccessToken, nil
}

func (m *Manager) forceLogout() {
	if m.store != nil {
		if err := m.store.Clear(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to clear stored credentials")
		}
	}
	m.mu.Lock()
	m.creds = nil
	m.status = StatusAnonymous
	m.mu.Unlock()
}

// tokenFresh reports whether the token is still valid beyond the refresh
// margin.
func tokenFresh(expiresAt int64) bool {
	return time.Now().Add(refreshMargin).Unix() < expiresAt
}
