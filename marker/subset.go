package marker

import (
	"fmt"
	"slices"
)

// StepSubset is the ordered subset of a Sequence whose markers correspond
// one-to-one with the positions of an external stepper. Markers outside the
// subset are sub-steps that do not move the stepper.
type StepSubset struct {
	seq   *Sequence
	steps []Marker
	pos   map[Marker]int
}

// NewStepSubset selects the named markers of seq as stepper positions. The
// names must be members of seq and appear in strictly increasing sequence order.
func NewStepSubset(seq *Sequence, names ...string) (*StepSubset, error) {
	if len(names) == 0 {
		return nil, ErrEmptySubset
	}

	sub := &StepSubset{
		seq:   seq,
		steps: make([]Marker, 0, len(names)),
		pos:   make(map[Marker]int, len(names)),
	}

	prev := -1

	for i, name := range names {
		m, err := seq.Lookup(name)
		if err != nil {
			return nil, err
		}

		if m.rank <= prev {
			return nil, fmt.Errorf("%w: %s at step %d", ErrSubsetOrder, name, i)
		}

		prev = m.rank
		sub.pos[m] = i
		sub.steps = append(sub.steps, m)
	}

	return sub, nil
}

// Sequence returns the sequence the subset was selected from.
func (s *StepSubset) Sequence() *Sequence {
	return s.seq
}

// Len returns the number of stepper positions.
func (s *StepSubset) Len() int {
	return len(s.steps)
}

// At returns the marker behind stepper position i.
func (s *StepSubset) At(i int) (Marker, error) {
	if i < 0 || i >= len(s.steps) {
		return Marker{}, &IndexOutOfRangeError{Index: i, Len: len(s.steps)}
	}

	return s.steps[i], nil
}

// IndexOf returns the stepper position of m, if m is a step marker.
func (s *StepSubset) IndexOf(m Marker) (int, bool) {
	idx, ok := s.pos[m]

	return idx, ok
}

// Contains reports whether m is a step marker.
func (s *StepSubset) Contains(m Marker) bool {
	_, ok := s.pos[m]

	return ok
}

// Clamp forces i into [0, Len()-1].
func (s *StepSubset) Clamp(i int) int {
	return min(max(i, 0), len(s.steps)-1)
}

// LastReached returns the stepper position of the last step marker at or
// before m in sequence order. Markers before the first step map to 0, as do
// markers that are not part of the sequence.
func (s *StepSubset) LastReached(m Marker) int {
	idx, err := s.seq.IndexOf(m)
	if err != nil {
		return 0
	}

	// steps are sorted by rank, so the insertion point minus one is the answer.
	n, found := slices.BinarySearchFunc(s.steps, idx, func(step Marker, target int) int {
		return step.rank - target
	})
	if found {
		return n
	}

	return max(n-1, 0)
}

// Markers returns a copy of the step markers in order.
func (s *StepSubset) Markers() []Marker {
	return slices.Clone(s.steps)
}
