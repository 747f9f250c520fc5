package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks running stream sessions for explicit
// cancellation. It maps request IDs to their cancel functions, allowing
// a DELETE request to abort a stream that is still producing output.
// Aborting through the registry cancels the producing context, so the
// session releases its cursor through the usual guard path.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]context.CancelFunc),
	}
}

// Register adds a running session to the registry. The cancel function
// will be called if the session is explicitly aborted. Returns false if
// a session with this ID is already registered, in which case the
// existing entry is left untouched.
func (r *InFlightRegistry) Register(requestID string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[requestID]; exists {
		return false
	}
	r.entries[requestID] = cancel
	return true
}

// Cancel aborts a running session by calling its cancel function.
// Returns true if the session was found and cancelled, false if the ID
// was not registered (either already completed or never existed).
func (r *InFlightRegistry) Cancel(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.entries[requestID]
	if !ok {
		return false
	}
	cancel()
	delete(r.entries, requestID)
	return true
}

// Remove removes a session from the registry without cancelling it.
// Called when a stream completes on its own.
func (r *InFlightRegistry) Remove(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, requestID)
}

// Len reports the number of sessions currently registered.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
