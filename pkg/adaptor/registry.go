package adaptor

import (
	"fmt"
	"sync"
)

// Registry is the per-adaptor table mapping handle IDs to live connection
// state. Descriptors handed to callers are immutable; whatever mutable state
// backs them (an open transport connection, a command channel) lives here.
//
// IDs are generated from a monotonically increasing counter scoped to the
// adaptor. Inserts and removals are serialized through one mutex; lookups
// may run concurrently with other lookups.
type Registry[T any] struct {
	mu          sync.RWMutex
	adaptorName string
	counter     int
	live        map[string]T
	closed      map[string]struct{}
}

// NewRegistry creates an empty registry for the named adaptor.
func NewRegistry[T any](adaptorName string) *Registry[T] {
	return &Registry[T]{
		adaptorName: adaptorName,
		live:        make(map[string]T),
		closed:      make(map[string]struct{}),
	}
}

// Register stores state under a fresh ID and returns the ID.
func (r *Registry[T]) Register(state T) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	id := fmt.Sprintf("%s-%d", r.adaptorName, r.counter)
	r.live[id] = state
	return id
}

// Get returns the live state for id. A closed handle yields an
// already-closed error; an ID this registry never issued yields not-found.
func (r *Registry[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if state, ok := r.live[id]; ok {
		return state, nil
	}

	var zero T
	if _, wasClosed := r.closed[id]; wasClosed {
		return zero, NewError(ErrAlreadyClosed, r.adaptorName, "Get",
			fmt.Sprintf("handle %s has been closed", id), nil)
	}
	return zero, NewError(ErrNotFound, r.adaptorName, "Get",
		fmt.Sprintf("unknown handle %s", id), nil)
}

// Remove deletes the entry for id and returns its state so the caller can
// release the underlying connection. Removing twice is an error, not a
// no-op: a close call is authoritative and exactly-once.
func (r *Registry[T]) Remove(id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.live[id]; ok {
		delete(r.live, id)
		r.closed[id] = struct{}{}
		return state, nil
	}

	var zero T
	if _, wasClosed := r.closed[id]; wasClosed {
		return zero, NewError(ErrAlreadyClosed, r.adaptorName, "Remove",
			fmt.Sprintf("handle %s has already been closed", id), nil)
	}
	return zero, NewError(ErrNotFound, r.adaptorName, "Remove",
		fmt.Sprintf("unknown handle %s", id), nil)
}

// Drain removes and returns all live state, for adaptor shutdown.
func (r *Registry[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	drained := make([]T, 0, len(r.live))
	for id, state := range r.live {
		drained = append(drained, state)
		delete(r.live, id)
		r.closed[id] = struct{}{}
	}
	return drained
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}
