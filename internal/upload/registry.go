package upload

import (
	"context"
	"sync"
)

// CancelRegistry maps a temporary message id to the cancel funcs of the
// uploads running for that message.
type CancelRegistry struct {
	mu      sync.Mutex
	entries map[string][]context.CancelFunc
}

// NewCancelRegistry creates an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{entries: make(map[string][]context.CancelFunc)}
}

// Register adds cancels under tempID.
func (r *CancelRegistry) Register(tempID string, cancels ...context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tempID] = append(r.entries[tempID], cancels...)
}

// Cancel aborts every upload registered under tempID. It reports whether
// anything was registered. The entry itself stays until Clear.
func (r *CancelRegistry) Cancel(tempID string) bool {
	r.mu.Lock()
	cancels, ok := r.entries[tempID]
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return ok
}

// Clear drops the entry for tempID.
func (r *CancelRegistry) Clear(tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, tempID)
}

// Has reports whether uploads are registered under tempID.
func (r *CancelRegistry) Has(tempID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[tempID]
	return ok
}

