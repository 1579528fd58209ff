package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andynicholson/cricket/client"
)

// AuthCallback is the event payload delivered on EventStravaAuthCallback.
type AuthCallback struct {
	Code string `json:"code"`
}

// API is the typed facade over the capability surface, held by the
// unprivileged side. It performs dispatch and error pass-through only.
type API struct {
	reg    *Registry
	events *Emitter
}

// NewAPI wires the facade to a registry and event emitter.
func NewAPI(reg *Registry, events *Emitter) *API {
	return &API{reg: reg, events: events}
}

// GetAppVersion returns the application version reported by the host.
func (a *API) GetAppVersion(ctx context.Context) (string, error) {
	raw, err := a.reg.Invoke(ctx, ChannelGetAppVersion, nil)
	if err != nil {
		return "", err
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", fmt.Errorf("failed to decode app version: %w", err)
	}
	return version, nil
}

// ExchangeStravaCode forwards an authorization code to the host for the
// code-for-token exchange.
func (a *API) ExchangeStravaCode(ctx context.Context, code string) (*client.TokenResponse, error) {
	return a.invokeToken(ctx, ChannelExchangeStravaCode, code)
}

// RefreshStravaToken forwards a refresh token to the host for the
// refresh-token exchange.
func (a *API) RefreshStravaToken(ctx context.Context, refreshToken string) (*client.TokenResponse, error) {
	return a.invokeToken(ctx, ChannelRefreshStravaToken, refreshToken)
}

// OnAuthCallback registers a listener invoked once per intercepted redirect.
// The returned function unsubscribes it.
func (a *API) OnAuthCallback(fn func(code string)) func() {
	return a.events.Subscribe(EventStravaAuthCallback, func(raw json.RawMessage) {
		var cb AuthCallback
		if err := json.Unmarshal(raw, &cb); err != nil {
			return
		}
		fn(cb.Code)
	})
}

func (a *API) invokeToken(ctx context.Context, channel, arg string) (*client.TokenResponse, error) {
	raw, err := a.reg.Invoke(ctx, channel, arg)
	if err != nil {
		return nil, err
	}
	var token client.TokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}
