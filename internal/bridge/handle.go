package bridge

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is an opaque collaborator ID assigned to a controller, generator,
// or supervisory device when it registers with the bridge. Using a handle
// instead of a pointer between the bridge and the device registry breaks
// the circular reference that would otherwise exist between an auction
// object and the controller bidding into it, and between a controller and
// the thermal model it reads from — both sides hold only a handle, and
// resolve it through the registry when they need the other's state.
type Handle string

// NewHandle returns a fresh, process-unique handle.
func NewHandle() Handle {
	return Handle(uuid.NewString())
}

// Registry maps handles to arbitrary per-device state (the "arena" in an
// arena+handle scheme). It is concurrency-safe.
type Registry struct {
	mu    sync.RWMutex
	items map[Handle]any
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[Handle]any)}
}

// Register assigns a fresh handle to v and returns it.
func (r *Registry) Register(v any) Handle {
	h := NewHandle()
	r.mu.Lock()
	r.items[h] = v
	r.mu.Unlock()
	return h
}

// Lookup resolves a handle to its registered value.
func (r *Registry) Lookup(h Handle) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[h]
	return v, ok
}

// Forget removes a handle from the registry.
func (r *Registry) Forget(h Handle) {
	r.mu.Lock()
	delete(r.items, h)
	r.mu.Unlock()
}
