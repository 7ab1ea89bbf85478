// Package progress holds an in-memory record of which lesson questions a
// learner has completed. It is the store gate predicates read from.
package progress

import (
	"slices"
	"sync"
)

// Store records completed question ids. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	completed map[string]bool
}

// NewStore creates a store with the given questions already completed.
func NewStore(completed ...string) *Store {
	s := &Store{
		completed: make(map[string]bool, len(completed)),
	}

	for _, id := range completed {
		s.completed[id] = true
	}

	return s
}

// Complete marks a question as completed.
func (s *Store) Complete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed[id] = true
}

// Reset clears the completion of a question.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.completed, id)
}

// QuestionCompleted reports whether a question has been completed.
func (s *Store) QuestionCompleted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.completed[id]
}

// Completed returns the sorted ids of completed questions.
func (s *Store) Completed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.completed))
	for id := range s.completed {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
