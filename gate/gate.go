// Package gate decides whether a marker may be entered by a forward move.
// Gates read externally owned lesson progress through predicates; they never
// mutate it.
package gate

import (
	"slices"
	"sync"

	"github.com/cosmicds/markerflow/marker"
)

// Predicate reports whether a marker is unlocked. It is evaluated on every
// check, so it must be side-effect free and cheap.
type Predicate func() bool

// ProgressReader is the read-only view of lesson progress that gates consume.
type ProgressReader interface {
	QuestionCompleted(id string) bool
}

// Registry maps marker names to predicates. Markers without a predicate are unlocked.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewRegistry creates an empty gate registry.
func NewRegistry() *Registry {
	return &Registry{
		predicates: make(map[string]Predicate),
	}
}

// Register associates p with m, replacing any earlier predicate.
func (r *Registry) Register(m marker.Marker, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.predicates[m.Name()] = p
}

// Unregister removes the predicate for m, unlocking it.
func (r *Registry) Unregister(m marker.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.predicates, m.Name())
}

// Has reports whether m has a predicate.
func (r *Registry) Has(m marker.Marker) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.predicates[m.Name()]

	return ok
}

// Markers returns the sorted names of gated markers.
func (r *Registry) Markers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// IsUnlocked evaluates the predicate for m against current external state.
// The predicate runs outside the registry lock.
func (r *Registry) IsUnlocked(m marker.Marker) bool {
	r.mu.RLock()
	pred, ok := r.predicates[m.Name()]
	r.mu.RUnlock()

	if !ok || pred == nil {
		return true
	}

	return pred()
}
