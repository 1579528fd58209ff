// Package host is the privileged side of the application: it holds the Strava
// client credentials, performs the token exchanges, and intercepts the OAuth
// redirect before it turns into a real navigation. The unprivileged side only
// reaches it through the capability bridge.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/andynicholson/cricket/bridge"
	"github.com/andynicholson/cricket/client"
	"github.com/rs/zerolog/log"
)

// Host wires the Strava client to the capability bridge and owns redirect
// interception.
type Host struct {
	version      string
	strava       *client.StravaClient
	events       *bridge.Emitter
	windows      *WindowRegistry
	callbackPath string
}

// New creates a Host and registers its request handlers on the bridge
// registry. The Strava client (and with it the client secret) never leaves
// this package's construction path.
func New(version string, strava *client.StravaClient, reg *bridge.Registry, events *bridge.Emitter, windows *WindowRegistry) *Host {
	h := &Host{
		version:      version,
		strava:       strava,
		events:       events,
		windows:      windows,
		callbackPath: client.CallbackPath,
	}

	reg.Handle(bridge.ChannelGetAppVersion, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return h.version, nil
	})
	reg.Handle(bridge.ChannelExchangeStravaCode, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var code string
		if err := json.Unmarshal(payload, &code); err != nil {
			return nil, fmt.Errorf("malformed exchange request: %w", err)
		}
		return h.strava.ExchangeCode(ctx, code)
	})
	reg.Handle(bridge.ChannelRefreshStravaToken, func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		var refreshToken string
		if err := json.Unmarshal(payload, &refreshToken); err != nil {
			return nil, fmt.Errorf("malformed refresh request: %w", err)
		}
		return h.strava.RefreshToken(ctx, refreshToken)
	})

	return h
}

// Windows exposes the host's window registry.
func (h *Host) Windows() *WindowRegistry { return h.windows }

// InterceptRedirect is invoked for every navigation attempt in every window
// the host owns. A navigation to the OAuth callback path is always consumed:
// with a code and a delivery target the code is relayed over the event channel
// and the popup closed; otherwise the attempt is logged and dropped. Returns
// whether the navigation was consumed.
func (h *Host) InterceptRedirect(win *Window, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse navigation URL")
		return false
	}
	if parsed.Path != h.callbackPath {
		return false // Ordinary navigation, not ours to handle.
	}

	// The popup is closed on the first interception; a repeated navigation
	// event for the same redirect must not deliver the code twice.
	if win.Closed() {
		log.Debug().Str("window", win.ID).Msg("Redirect for an already-closed window ignored")
		return true
	}
	defer win.Close()

	code := parsed.Query().Get("code")
	if code == "" {
		log.Warn().Str("window", win.ID).Msg("Callback redirect carried no authorization code; dropping")
		return true
	}

	target := h.windows.FindDeliveryTarget(win)
	if target == nil {
		log.Warn().Str("window", win.ID).Msg("No delivery target for intercepted redirect; dropping")
		return true
	}

	log.Info().Str("window", target.ID).Msg("Relaying intercepted authorization code")
	h.events.Publish(bridge.EventStravaAuthCallback, bridge.AuthCallback{Code: code})
	return true
}
