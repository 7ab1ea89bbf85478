package statemachine

import (
	"context"

	"github.com/cosmicds/markerflow/marker"
)

// Direction is the direction of a marker change, derived from sequence indices.
type Direction int

const (
	Stationary Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Stationary:
		return "stationary"
	default:
		return "unknown"
	}
}

func directionOf(oldIndex, newIndex int) Direction {
	switch {
	case newIndex > oldIndex:
		return Forward
	case newIndex < oldIndex:
		return Backward
	default:
		return Stationary
	}
}

// Cause records which operation produced a change.
type Cause int

const (
	// CauseAdvance is a gated forward move (MoveForward, MoveForwardTo, AdvanceFrom).
	CauseAdvance Cause = iota
	// CauseJump is an ungated MoveTo, usually driven by the stepper.
	CauseJump
	// CauseRestore is a write of a persisted marker name.
	CauseRestore
)

func (c Cause) String() string {
	switch c {
	case CauseAdvance:
		return "advance"
	case CauseJump:
		return "jump"
	case CauseRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Change describes a single committed transition. Old and New always differ.
type Change struct {
	Old       marker.Marker
	New       marker.Marker
	OldIndex  int
	NewIndex  int
	Direction Direction
	Cause     Cause
}

// Advancing reports whether the change moved forward in the sequence.
func (c Change) Advancing() bool {
	return c.Direction == Forward
}

// Retreating reports whether the change moved backward in the sequence.
func (c Change) Retreating() bool {
	return c.Direction == Backward
}

// Listener is notified after every committed change.
type Listener interface {
	OnMarkerChange(ctx context.Context, change Change)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, change Change)

func (f ListenerFunc) OnMarkerChange(ctx context.Context, change Change) {
	f(ctx, change)
}
