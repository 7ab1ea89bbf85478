// Package stagetest provides testing utilities for lesson stages.
package stagetest

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/cosmicds/markerflow/progress"
	"github.com/cosmicds/markerflow/stage"
	"github.com/cosmicds/markerflow/statemachine"
	"github.com/cosmicds/markerflow/stepper"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

// Harness wraps a Stage with an in-memory stepper, a progress store and a
// trace of every committed marker change.
type Harness struct {
	*stage.Stage

	t        *testing.T
	progress *progress.Store
	model    *stepper.Model
	trace    []TraceEntry
}

// TraceEntry records a single committed change.
type TraceEntry struct {
	Timestamp time.Time
	Change    statemachine.Change

	// StepIndex is the stepper index once the bridge has handled the change.
	StepIndex int
}

// NewHarness builds a stage for config that logs to the test output.
// Extra options are applied after the test logger.
func NewHarness(t *testing.T, config *stage.Config, opts ...stage.Option) *Harness {
	t.Helper()

	store := progress.NewStore()

	opts = append([]stage.Option{stage.WithLogger(slogt.New(t))}, opts...)

	s, err := stage.New(config, store, nil, opts...)
	require.NoError(t, err, "failed to create stage")

	model, ok := s.Stepper().(*stepper.Model)
	require.True(t, ok, "stage should own an in-memory stepper")

	h := &Harness{
		Stage:    s,
		t:        t,
		progress: store,
		model:    model,
	}

	// Subscribed last, so it sees the step index the bridge wrote.
	s.Machine().Subscribe(statemachine.ListenerFunc(func(_ context.Context, change statemachine.Change) {
		h.trace = append(h.trace, TraceEntry{
			Timestamp: time.Now(),
			Change:    change,
			StepIndex: model.StepIndex(),
		})
	}))

	return h
}

// Progress returns the store the stage gates read from.
func (h *Harness) Progress() *progress.Store {
	return h.progress
}

// Model returns the stepper driven by the stage.
func (h *Harness) Model() *stepper.Model {
	return h.model
}

// Answer marks questions as completed.
func (h *Harness) Answer(ids ...string) {
	for _, id := range ids {
		h.progress.Complete(id)
	}
}

// Navigate simulates the user clicking step index in the stepper.
func (h *Harness) Navigate(index int) {
	h.model.SetStepIndex(index)
}

// AdvanceAll moves forward until a gate or the last marker stops it and
// returns the number of moves made.
func (h *Harness) AdvanceAll(ctx context.Context) int {
	moves := 0
	for h.Advance(ctx) {
		moves++
	}

	return moves
}

// Trace returns the recorded changes in commit order.
func (h *Harness) Trace() []TraceEntry {
	return slices.Clone(h.trace)
}

// Visited returns the names of the markers entered, in order.
func (h *Harness) Visited() []string {
	names := make([]string, 0, len(h.trace))
	for _, entry := range h.trace {
		names = append(names, entry.Change.New.Name())
	}

	return names
}

// ResetTrace forgets recorded changes.
func (h *Harness) ResetTrace() {
	h.trace = nil
}

// AssertCurrent checks the current marker.
func (h *Harness) AssertCurrent(expected string) {
	h.t.Helper()

	require.Equal(h.t, expected, h.Current().Name(), "current marker should be '%s'", expected)
}

// AssertStepIndex checks the stepper index.
func (h *Harness) AssertStepIndex(expected int) {
	h.t.Helper()

	require.Equal(h.t, expected, h.model.StepIndex(), "step index should be %d", expected)
}

// AssertStepsCompleted checks the completion flag of every step.
func (h *Harness) AssertStepsCompleted(expected ...bool) {
	h.t.Helper()

	require.Equal(h.t, expected, h.model.Completed(), "step completion flags")
}

// AssertMarkerVisited checks that a change entered name.
func (h *Harness) AssertMarkerVisited(name string) {
	h.t.Helper()

	require.Contains(h.t, h.Visited(), name, "marker '%s' should have been visited", name)
}

// AssertTransitionTaken checks that a single change went from one marker to the other.
func (h *Harness) AssertTransitionTaken(from, to string) {
	h.t.Helper()

	matched, err := TransitionWasTaken(from, to).Match(h)
	require.NoError(h.t, err)
	require.True(h.t, matched, "transition from '%s' to '%s' should have been taken", from, to)
}

// AssertMatches runs matchers against the harness and fails on the first mismatch.
func (h *Harness) AssertMatches(matchers ...Matcher) {
	h.t.Helper()

	for _, m := range matchers {
		matched, err := m.Match(h)
		require.NoError(h.t, err, m.Description())
		require.True(h.t, matched, m.Description())
	}
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%s -> %s (%s, step %d)", e.Change.Old.Name(), e.Change.New.Name(), e.Change.Cause, e.StepIndex)
}
