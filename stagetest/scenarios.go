package stagetest

import (
	"context"
	"testing"

	"github.com/cosmicds/markerflow/stage"
	"github.com/stretchr/testify/require"
)

// Action is one user or lesson event applied to a harness.
type Action func(ctx context.Context, h *Harness)

// Advance requests a single gated forward move.
func Advance() Action {
	return func(ctx context.Context, h *Harness) {
		h.Advance(ctx)
	}
}

// Answer completes questions.
func Answer(ids ...string) Action {
	return func(_ context.Context, h *Harness) {
		h.Answer(ids...)
	}
}

// Navigate clicks a step in the stepper.
func Navigate(index int) Action {
	return func(_ context.Context, h *Harness) {
		h.Navigate(index)
	}
}

// JumpTo moves to the named marker without consulting gates.
func JumpTo(name string) Action {
	return func(ctx context.Context, h *Harness) {
		_, err := h.JumpTo(ctx, name)
		require.NoError(h.t, err)
	}
}

// Scenario is a complete walk through a stage.
type Scenario struct {
	Name    string
	Config  *stage.Config
	Options []stage.Option
	Actions []Action
	Expect  []Matcher
}

// RunScenario applies the actions in order and then checks every matcher.
func RunScenario(t *testing.T, scenario Scenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		h := NewHarness(t, scenario.Config, scenario.Options...)

		ctx := h.Context(context.Background())
		for _, action := range scenario.Actions {
			action(ctx, h)
		}

		for _, m := range scenario.Expect {
			matched, err := m.Match(h)
			if !matched || err != nil {
				t.Errorf("Assertion failed: %s - %v", m.Description(), err)
			}
		}
	})
}

// GatedWalkthroughScenario walks TwoStep to its end, answering the gate question.
func GatedWalkthroughScenario() Scenario {
	return Scenario{
		Name:   "Gated Walkthrough",
		Config: CommonTestConfigs.TwoStep(),
		Actions: []Action{
			Advance(),
			Advance(),
			Answer("q_a2"),
			Advance(),
			Advance(),
		},
		Expect: []Matcher{
			CurrentMarkerIs("b2"),
			StepIndexIs(1),
			StepCompleted(0),
			ChangeCount(3),
		},
	}
}

// NavigationScenario drives TwoStep from the stepper only.
func NavigationScenario() Scenario {
	return Scenario{
		Name:   "Stepper Navigation",
		Config: CommonTestConfigs.TwoStep(),
		Actions: []Action{
			Navigate(1),
			Navigate(0),
		},
		Expect: []Matcher{
			TransitionWasTaken("a1", "b1"),
			TransitionWasTaken("b1", "a1"),
			CurrentMarkerIs("a1"),
			StepIndexIs(0),
		},
	}
}

// BackwardJumpScenario walks TwoStep to its end and jumps back to the first
// step marker.
func BackwardJumpScenario() Scenario {
	return Scenario{
		Name:   "Backward Jump",
		Config: CommonTestConfigs.TwoStep(),
		Actions: []Action{
			Answer("q_a2"),
			Advance(),
			Advance(),
			Advance(),
			JumpTo("a1"),
		},
		Expect: []Matcher{
			TransitionWasTaken("b2", "a1"),
			CurrentMarkerIs("a1"),
			StepIndexIs(0),
			StepCompleted(0),
		},
	}
}
