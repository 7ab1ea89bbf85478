// Package stepper keeps an external step indicator in line with a marker
// state machine.
//
// A stage's markers are finer grained than the steps a learner sees. The
// Bridge maps forward motion through the step markers onto the stepper and
// maps stepper navigation back onto machine jumps, guarding the one place
// where the two sides would otherwise feed each other.
package stepper

// Stepper is the externally owned step indicator.
type Stepper interface {
	StepIndex() int
	SetStepIndex(index int)
	SetStepComplete(index int, complete bool)
}

// Model is an in-memory Stepper. Like a reactive UI binding, every
// SetStepIndex write is echoed to OnChange, including writes made by the
// Bridge itself.
type Model struct {
	index    int
	complete []bool

	// OnChange, when set, is called after every SetStepIndex.
	OnChange func(index int)
}

var _ Stepper = (*Model)(nil)

// NewModel creates a stepper with the given number of steps, positioned at 0.
func NewModel(steps int) *Model {
	return &Model{
		complete: make([]bool, max(steps, 0)),
	}
}

func (m *Model) Len() int {
	return len(m.complete)
}

func (m *Model) StepIndex() int {
	return m.index
}

func (m *Model) SetStepIndex(index int) {
	m.index = index

	if m.OnChange != nil {
		m.OnChange(index)
	}
}

// SetStepComplete records completion of a step. Out of range indices are ignored.
func (m *Model) SetStepComplete(index int, complete bool) {
	if index < 0 || index >= len(m.complete) {
		return
	}

	m.complete[index] = complete
}

func (m *Model) StepComplete(index int) bool {
	if index < 0 || index >= len(m.complete) {
		return false
	}

	return m.complete[index]
}

// Completed returns a copy of the per-step completion flags.
func (m *Model) Completed() []bool {
	out := make([]bool, len(m.complete))
	copy(out, m.complete)

	return out
}
