package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the handles of runs that are still shown so they can be
// cancelled together when the view is cleared.
type Registry struct {
	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[uuid.UUID]*Handle)}
}

// Add tracks h until it is cancelled or removed.
func (r *Registry) Add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.RunID] = h
}

// Remove forgets the run without cancelling it.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// Len returns the number of tracked runs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// CancelAll cancels every tracked run and empties the registry. It returns
// how many handles were cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[uuid.UUID]*Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
	return len(handles)
}
