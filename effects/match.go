package effects

import (
	"github.com/cosmicds/markerflow/marker"
	"github.com/cosmicds/markerflow/statemachine"
)

// Match decides whether an effect applies to a change.
type Match func(change statemachine.Change) bool

// Any matches every change.
func Any() Match {
	return func(statemachine.Change) bool {
		return true
	}
}

// Entering matches changes whose new marker is m.
func Entering(m marker.Marker) Match {
	return func(c statemachine.Change) bool {
		return c.New == m
	}
}

// Leaving matches changes whose old marker is m.
func Leaving(m marker.Marker) Match {
	return func(c statemachine.Change) bool {
		return c.Old == m
	}
}

// Between matches exactly the change from -> to.
func Between(from, to marker.Marker) Match {
	return func(c statemachine.Change) bool {
		return c.Old == from && c.New == to
	}
}

func Advancing() Match {
	return Direction(statemachine.Forward)
}

func Retreating() Match {
	return Direction(statemachine.Backward)
}

func Direction(d statemachine.Direction) Match {
	return func(c statemachine.Change) bool {
		return c.Direction == d
	}
}

// Crossing matches forward changes that reach or pass m, including jumps
// that skip over it.
func Crossing(m marker.Marker) Match {
	return func(c statemachine.Change) bool {
		if m.IsZero() || !c.Advancing() {
			return false
		}

		return c.OldIndex < m.Rank() && m.Rank() <= c.NewIndex
	}
}

// AllOf matches when every matcher does. An empty AllOf matches everything.
func AllOf(matches ...Match) Match {
	return func(c statemachine.Change) bool {
		for _, m := range matches {
			if !m(c) {
				return false
			}
		}

		return true
	}
}

// AnyOf matches when at least one matcher does.
func AnyOf(matches ...Match) Match {
	return func(c statemachine.Change) bool {
		for _, m := range matches {
			if m(c) {
				return true
			}
		}

		return false
	}
}
