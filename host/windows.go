package host

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WindowKind distinguishes the application window from authorization popups.
type WindowKind int

const (
	WindowMain WindowKind = iota
	WindowPopup
)

// Window is the host's logical record of an open window. A popup carries the
// correlation identifier of the window that initiated it, so an intercepted
// redirect can be delivered back to its initiator even with several windows
// open.
type Window struct {
	ID          string
	Kind        WindowKind
	Correlation string

	mu      sync.Mutex
	closed  bool
	onClose func()
}

// Close marks the window closed and runs its close hook once. Safe to call
// repeatedly.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	onClose := w.onClose
	w.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

// Closed reports whether the window has been closed.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// WindowRegistry tracks the windows the host owns.
type WindowRegistry struct {
	mu      sync.Mutex
	windows map[string]*Window
}

// NewWindowRegistry creates an empty registry.
func NewWindowRegistry() *WindowRegistry {
	return &WindowRegistry{windows: make(map[string]*Window)}
}

// Open registers a new window of the given kind, tagged with a correlation
// identifier. The window is removed from the registry when closed.
func (r *WindowRegistry) Open(kind WindowKind, correlation string) *Window {
	win := &Window{
		ID:          uuid.NewString(),
		Kind:        kind,
		Correlation: correlation,
	}
	win.onClose = func() {
		r.mu.Lock()
		delete(r.windows, win.ID)
		r.mu.Unlock()
		log.Debug().Str("window", win.ID).Msg("Window closed")
	}

	r.mu.Lock()
	r.windows[win.ID] = win
	r.mu.Unlock()
	return win
}

// FindDeliveryTarget returns the open window sharing the popup's correlation
// identifier, or nil when none exists. Matching on the correlation tag instead
// of "any other window" keeps delivery deterministic with three or more
// windows open.
func (r *WindowRegistry) FindDeliveryTarget(popup *Window) *Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.windows {
		if w.ID != popup.ID && w.Correlation == popup.Correlation {
			return w
		}
	}
	return nil
}

// Count returns the number of open windows.
func (r *WindowRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}
