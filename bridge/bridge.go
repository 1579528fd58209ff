// Package bridge is the only permitted communication surface between the
// unprivileged auth/UI code and the privileged host. It carries a fixed,
// enumerated set of request/response channels plus one event channel; no
// arbitrary dispatch and no business logic live here.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Channel names of the capability surface.
const (
	ChannelGetAppVersion      = "get-app-version"
	ChannelExchangeStravaCode = "exchange-strava-code"
	ChannelRefreshStravaToken = "refresh-strava-token"

	// EventStravaAuthCallback carries {code} after a successful redirect
	// interception.
	EventStravaAuthCallback = "strava-auth-callback"
)

// ErrNoHandler is returned by Invoke for a channel nothing is registered on.
var ErrNoHandler = errors.New("no handler registered for channel")

// HandlerFunc serves one request channel. The payload is the JSON-encoded
// request argument; the returned value is JSON-encoded for the caller.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Registry dispatches requests to registered channel handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for a channel, replacing any previous handler.
func (r *Registry) Handle(channel string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channel] = fn
}

// Invoke encodes arg, dispatches it to the channel's handler, and returns the
// encoded result. Handler errors pass through unwrapped so callers can inspect
// their types. Payloads are never logged; they may carry tokens.
func (r *Registry) Invoke(ctx context.Context, channel string, arg interface{}) (json.RawMessage, error) {
	r.mu.RLock()
	fn, ok := r.handlers[channel]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, channel)
	}

	payload, err := json.Marshal(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for channel %s: %w", channel, err)
	}

	log.Debug().Str("channel", channel).Msg("Invoking bridge channel")
	result, err := fn(ctx, payload)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response for channel %s: %w", channel, err)
	}
	return encoded, nil
}
