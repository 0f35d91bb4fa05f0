// Package sessionstate tracks the externally-observable phase of the
// settings lifecycle (idle / applied / reverting) and reports transitions
// on the event bus and health tracker.
package sessionstate

import (
	"sync"

	"displayd/internal/events"
)

// Registry holds the current session state behind a lock. There is exactly
// one session per daemon instance (see spec §4.3.3: no multi-session
// concurrency on the same host).
type Registry struct {
	mu    sync.RWMutex
	state events.SessionState
}

// NewRegistry starts idle.
func NewRegistry() *Registry {
	return &Registry{state: events.SessionIdle}
}

// Set records the new state.
func (r *Registry) Set(state events.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

// Current returns the state currently recorded.
func (r *Registry) Current() events.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
