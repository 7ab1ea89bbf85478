// Package statemachine tracks the current marker of a lesson stage and
// notifies listeners when it changes.
//
// A Machine holds exactly one valid marker of its sequence at all times.
// Forward moves are gated; jumps and restores are not. Every committed
// change is delivered synchronously to listeners in subscription order,
// and a listener may itself request a further transition.
//
// A Machine is not safe for concurrent use. It is meant to be driven from a
// single event loop, the same one that drives its listeners.
package statemachine

import (
	"context"
	"slices"

	"github.com/cosmicds/markerflow/gate"
	"github.com/cosmicds/markerflow/marker"
)

type subscription struct {
	id       int
	listener Listener
}

// Machine is the marker state machine of one stage.
type Machine struct {
	seq       *marker.Sequence
	gates     *gate.Registry
	current   marker.Marker
	listeners []subscription
	nextID    int
	logger    Logger
	stageName string
}

type options struct {
	initial    string
	hasInitial bool
	logger     Logger
	stageName  string
}

// Option configures a Machine.
type Option func(*options)

// WithInitial sets the initial marker from a persisted name. Unknown names
// recover to the first marker.
func WithInitial(name string) Option {
	return func(o *options) {
		o.initial = name
		o.hasInitial = true
	}
}

// WithLogger replaces the default slog-backed logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStageName labels logs, metrics and spans with the owning stage.
func WithStageName(name string) Option {
	return func(o *options) {
		o.stageName = name
	}
}

// New creates a machine positioned at the first marker of seq, or at the
// WithInitial marker. A nil gate registry means every marker is unlocked.
func New(seq *marker.Sequence, gates *gate.Registry, opts ...Option) *Machine {
	if seq == nil {
		panic("statemachine: nil sequence")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if gates == nil {
		gates = gate.NewRegistry()
	}

	if o.logger == nil {
		o.logger = NewDefaultLogger()
	}

	m := &Machine{
		seq:       seq,
		gates:     gates,
		current:   seq.First(),
		logger:    o.logger,
		stageName: o.stageName,
	}

	if o.hasInitial {
		m.current = m.resolve(context.Background(), o.initial, reasonInitial)
	}

	return m
}

// Current returns the current marker. It is always an element of Sequence.
func (m *Machine) Current() marker.Marker {
	return m.current
}

// CurrentIndex returns the sequence index of the current marker.
func (m *Machine) CurrentIndex() int {
	return m.current.Rank()
}

func (m *Machine) Sequence() *marker.Sequence {
	return m.seq
}

func (m *Machine) Gates() *gate.Registry {
	return m.gates
}

func (m *Machine) StageName() string {
	return m.stageName
}

// Subscribe registers a listener and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (m *Machine) Subscribe(l Listener) (unsubscribe func()) {
	m.nextID++
	id := m.nextID

	m.listeners = append(m.listeners, subscription{id: id, listener: l})

	return func() {
		m.listeners = slices.DeleteFunc(m.listeners, func(s subscription) bool {
			return s.id == id
		})
	}
}

// MoveForward advances to the next marker if it is unlocked. It returns
// false at the last marker or when the gate denies the move.
func (m *Machine) MoveForward(ctx context.Context) bool {
	candidate, err := m.seq.Next(m.current)
	if err != nil {
		return false
	}

	return m.advance(ctx, "move_forward", candidate)
}

// MoveForwardTo advances to target if it lies after the current marker and
// is unlocked. A target outside the sequence is treated as the first marker,
// which is never an advance.
func (m *Machine) MoveForwardTo(ctx context.Context, target marker.Marker) bool {
	if _, err := m.seq.IndexOf(target); err != nil {
		target = m.recover(ctx, target.Name(), reasonInvalidTarget)
	}

	return m.advance(ctx, "move_forward_to", target)
}

// AdvanceFrom moves forward only when the current marker is from. It lets a
// collaborator advance "past this point" without racing an earlier move.
func (m *Machine) AdvanceFrom(ctx context.Context, from marker.Marker) bool {
	if from != m.current {
		return false
	}

	return m.MoveForward(ctx)
}

func (m *Machine) advance(ctx context.Context, op string, candidate marker.Marker) (moved bool) {
	ctx, span := startTransitionSpan(ctx, op, m.stageName, m.current)
	defer func() {
		endTransitionSpan(span, candidate, moved)
	}()

	if candidate.Rank() <= m.current.Rank() {
		return false
	}

	if !m.gates.IsUnlocked(candidate) {
		m.logger.GateDenied(ctx, m.stageName, m.current.Name(), candidate.Name())
		gateDenialsTotal.WithLabelValues(sanitizeStage(m.stageName), candidate.Name()).Inc()

		return false
	}

	m.commit(ctx, candidate, CauseAdvance)

	return true
}

// MoveTo jumps to target without consulting gates. A target outside the
// sequence recovers to the first marker. Moving to the current marker is a
// no-op and notifies nobody.
func (m *Machine) MoveTo(ctx context.Context, target marker.Marker) (moved bool) {
	ctx, span := startTransitionSpan(ctx, "move_to", m.stageName, m.current)
	defer func() {
		endTransitionSpan(span, target, moved)
	}()

	if _, err := m.seq.IndexOf(target); err != nil {
		target = m.recover(ctx, target.Name(), reasonInvalidJump)
	}

	if target == m.current {
		return false
	}

	m.commit(ctx, target, CauseJump)

	return true
}

// Restore writes a persisted marker name. Unknown names recover to the
// first marker. Gates are not consulted.
func (m *Machine) Restore(ctx context.Context, name string) (moved bool) {
	ctx, span := startTransitionSpan(ctx, "restore", m.stageName, m.current)

	target := m.resolve(ctx, name, reasonRestore)

	defer func() {
		endTransitionSpan(span, target, moved)
	}()

	if target == m.current {
		return false
	}

	m.commit(ctx, target, CauseRestore)

	return true
}

// IsReached reports whether the current marker is at or after target.
// Markers outside the sequence are never reached.
func (m *Machine) IsReached(target marker.Marker) bool {
	idx, err := m.seq.IndexOf(target)

	return err == nil && m.current.Rank() >= idx
}

// IsBefore reports whether the current marker is strictly before target.
func (m *Machine) IsBefore(target marker.Marker) bool {
	idx, err := m.seq.IndexOf(target)

	return err == nil && m.current.Rank() < idx
}

// IsAfter reports whether the current marker is strictly after target.
func (m *Machine) IsAfter(target marker.Marker) bool {
	idx, err := m.seq.IndexOf(target)

	return err == nil && m.current.Rank() > idx
}

// Position returns the sequence index of target, or an
// *marker.UnknownMarkerError when target is not part of the sequence.
func (m *Machine) Position(target marker.Marker) (int, error) {
	return m.seq.IndexOf(target)
}

func (m *Machine) resolve(ctx context.Context, name, reason string) marker.Marker {
	target, err := m.seq.Lookup(name)
	if err != nil {
		return m.recover(ctx, name, reason)
	}

	return target
}

func (m *Machine) recover(ctx context.Context, requested, reason string) marker.Marker {
	fallback := m.seq.First()

	m.logger.Recovered(ctx, m.stageName, requested, fallback.Name(), reason)
	recoveriesTotal.WithLabelValues(sanitizeStage(m.stageName), reason).Inc()

	return fallback
}

func (m *Machine) commit(ctx context.Context, next marker.Marker, cause Cause) {
	old := m.current

	change := Change{
		Old:       old,
		New:       next,
		OldIndex:  old.Rank(),
		NewIndex:  next.Rank(),
		Direction: directionOf(old.Rank(), next.Rank()),
		Cause:     cause,
	}

	m.current = next

	m.logger.TransitionExecuted(ctx, m.stageName, change)
	transitionsTotal.WithLabelValues(sanitizeStage(m.stageName), old.Name(), next.Name(), cause.String()).Inc()

	m.notify(ctx, change)
}

// notify delivers change to a snapshot of the listeners, so listeners that
// subscribe or unsubscribe during delivery take effect from the next change.
func (m *Machine) notify(ctx context.Context, change Change) {
	for _, s := range slices.Clone(m.listeners) {
		s.listener.OnMarkerChange(ctx, change)
	}
}
