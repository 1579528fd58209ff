package bridge

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Emitter is a typed publish/subscribe channel for bridge events. Subscribe
// returns an explicit unsubscribe handle so listeners cannot leak across
// teardowns.
type Emitter struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func(json.RawMessage)
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[string]map[uint64]func(json.RawMessage))}
}

// Subscribe registers fn for an event. Every registered subscriber fires on
// each publish. The returned function removes the registration; calling it
// more than once is harmless.
func (e *Emitter) Subscribe(event string, fn func(json.RawMessage)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.subs[event] == nil {
		e.subs[event] = make(map[uint64]func(json.RawMessage))
	}
	id := e.nextID
	e.nextID++
	e.subs[event][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs[event], id)
	}
}

// Publish encodes payload and delivers it synchronously to every subscriber
// of the event. Delivery order between subscribers is not defined.
func (e *Emitter) Publish(event string, payload interface{}) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode event payload")
		return
	}

	e.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(e.subs[event]))
	for _, fn := range e.subs[event] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(encoded)
	}
}
