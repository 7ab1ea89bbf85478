package stagetest

import (
	"errors"
	"fmt"
	"slices"
)

// Matcher errors.
var (
	ErrNoTrace             = errors.New("no marker changes recorded")
	ErrNoMatchersPassed    = errors.New("no matchers passed")
	ErrMarkerNotVisited    = errors.New("marker was not visited")
	ErrMarkerVisited       = errors.New("marker was visited")
	ErrTransitionNotTaken  = errors.New("transition was not taken")
	ErrCurrentMismatch     = errors.New("current marker mismatch")
	ErrStepIndexMismatch   = errors.New("step index mismatch")
	ErrStepNotCompleted    = errors.New("step was not completed")
	ErrUnexpectedTraceSize = errors.New("unexpected number of marker changes")
)

// Matcher defines an assertion matcher interface.
type Matcher interface {
	Match(h *Harness) (bool, error)
	Description() string
}

// MarkerWasVisited creates a matcher that checks if a change entered name.
func MarkerWasVisited(name string) Matcher {
	return &markerVisitedMatcher{name: name}
}

type markerVisitedMatcher struct {
	name string
}

func (m *markerVisitedMatcher) Match(h *Harness) (bool, error) {
	if slices.Contains(h.Visited(), m.name) {
		return true, nil
	}

	return false, fmt.Errorf("%w: '%s'", ErrMarkerNotVisited, m.name)
}

func (m *markerVisitedMatcher) Description() string {
	return fmt.Sprintf("marker '%s' should be visited", m.name)
}

// MarkerWasNotVisited creates a matcher that checks no change entered name.
func MarkerWasNotVisited(name string) Matcher {
	return &markerNotVisitedMatcher{name: name}
}

type markerNotVisitedMatcher struct {
	name string
}

func (m *markerNotVisitedMatcher) Match(h *Harness) (bool, error) {
	if slices.Contains(h.Visited(), m.name) {
		return false, fmt.Errorf("%w: '%s'", ErrMarkerVisited, m.name)
	}

	return true, nil
}

func (m *markerNotVisitedMatcher) Description() string {
	return fmt.Sprintf("marker '%s' should not be visited", m.name)
}

// TransitionWasTaken creates a matcher that checks a single change went
// from one marker to the other.
func TransitionWasTaken(from, to string) Matcher {
	return &transitionTakenMatcher{from: from, to: to}
}

type transitionTakenMatcher struct {
	from string
	to   string
}

func (m *transitionTakenMatcher) Match(h *Harness) (bool, error) {
	if len(h.trace) == 0 {
		return false, ErrNoTrace
	}

	for _, entry := range h.trace {
		if entry.Change.Old.Name() == m.from && entry.Change.New.Name() == m.to {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: from '%s' to '%s'", ErrTransitionNotTaken, m.from, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition from '%s' to '%s' should be taken", m.from, m.to)
}

// CurrentMarkerIs creates a matcher that checks the current marker.
func CurrentMarkerIs(name string) Matcher {
	return &currentMatcher{name: name}
}

type currentMatcher struct {
	name string
}

func (m *currentMatcher) Match(h *Harness) (bool, error) {
	if actual := h.Current().Name(); actual != m.name {
		return false, fmt.Errorf("%w: expected '%s', got '%s'", ErrCurrentMismatch, m.name, actual)
	}

	return true, nil
}

func (m *currentMatcher) Description() string {
	return fmt.Sprintf("current marker should be '%s'", m.name)
}

// StepIndexIs creates a matcher that checks the stepper index.
func StepIndexIs(index int) Matcher {
	return &stepIndexMatcher{index: index}
}

type stepIndexMatcher struct {
	index int
}

func (m *stepIndexMatcher) Match(h *Harness) (bool, error) {
	if actual := h.model.StepIndex(); actual != m.index {
		return false, fmt.Errorf("%w: expected %d, got %d", ErrStepIndexMismatch, m.index, actual)
	}

	return true, nil
}

func (m *stepIndexMatcher) Description() string {
	return fmt.Sprintf("step index should be %d", m.index)
}

// StepCompleted creates a matcher that checks a step is marked complete.
func StepCompleted(index int) Matcher {
	return &stepCompletedMatcher{index: index}
}

type stepCompletedMatcher struct {
	index int
}

func (m *stepCompletedMatcher) Match(h *Harness) (bool, error) {
	if !h.model.StepComplete(m.index) {
		return false, fmt.Errorf("%w: %d", ErrStepNotCompleted, m.index)
	}

	return true, nil
}

func (m *stepCompletedMatcher) Description() string {
	return fmt.Sprintf("step %d should be complete", m.index)
}

// ChangeCount creates a matcher that checks how many changes were committed.
func ChangeCount(n int) Matcher {
	return &changeCountMatcher{n: n}
}

type changeCountMatcher struct {
	n int
}

func (m *changeCountMatcher) Match(h *Harness) (bool, error) {
	if len(h.trace) != m.n {
		return false, fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedTraceSize, m.n, len(h.trace))
	}

	return true, nil
}

func (m *changeCountMatcher) Description() string {
	return fmt.Sprintf("%d marker changes should be committed", m.n)
}

// All creates a matcher that requires all sub-matchers to pass.
func All(matchers ...Matcher) Matcher {
	return &allMatcher{matchers: matchers}
}

type allMatcher struct {
	matchers []Matcher
}

func (m *allMatcher) Match(h *Harness) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(h)
		if !matched || err != nil {
			return false, err
		}
	}

	return true, nil
}

func (m *allMatcher) Description() string {
	return "all matchers should pass"
}

// Any creates a matcher that requires at least one sub-matcher to pass.
func Any(matchers ...Matcher) Matcher {
	return &anyMatcher{matchers: matchers}
}

type anyMatcher struct {
	matchers []Matcher
}

func (m *anyMatcher) Match(h *Harness) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(h)
		if matched && err == nil {
			return true, nil
		}
	}

	return false, ErrNoMatchersPassed
}

func (m *anyMatcher) Description() string {
	return "at least one matcher should pass"
}
