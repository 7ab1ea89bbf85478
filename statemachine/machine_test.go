package statemachine

import (
	"context"
	"errors"
	"testing"

	"github.com/cosmicds/markerflow/gate"
	"github.com/cosmicds/markerflow/marker"
	"github.com/cosmicds/markerflow/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	changes []Change
}

func (r *recorder) OnMarkerChange(_ context.Context, change Change) {
	r.changes = append(r.changes, change)
}

func (r *recorder) names() []string {
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Old.Name()+">"+c.New.Name())
	}

	return out
}

func mustLookup(t *testing.T, seq *marker.Sequence, name string) marker.Marker {
	t.Helper()

	m, err := seq.Lookup(name)
	require.NoError(t, err)

	return m
}

// twoStepStage is the a1/a2/b1/b2 stage where b1 is locked behind question q_a2.
func twoStepStage(t *testing.T, opts ...Option) (*Machine, *progress.Store) {
	t.Helper()

	seq := marker.MustSequence("a1", "a2", "b1", "b2")
	store := progress.NewStore()
	gates := gate.NewRegistry()
	gates.Register(mustLookup(t, seq, "b1"), gate.QuestionsCompleted(store, "q_a2"))

	return New(seq, gates, opts...), store
}

func TestMoveForwardHonoursGates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, store := twoStepStage(t)
	rec := &recorder{}
	m.Subscribe(rec)

	assert.Equal(t, "a1", m.Current().Name())

	require.True(t, m.MoveForward(ctx))
	assert.Equal(t, "a2", m.Current().Name())

	assert.False(t, m.MoveForward(ctx))
	assert.Equal(t, "a2", m.Current().Name())

	store.Complete("q_a2")
	require.True(t, m.MoveForward(ctx))
	assert.Equal(t, "b1", m.Current().Name())

	require.True(t, m.MoveForward(ctx))
	assert.False(t, m.MoveForward(ctx), "last marker saturates")

	assert.Equal(t, []string{"a1>a2", "a2>b1", "b1>b2"}, rec.names())

	for _, c := range rec.changes {
		assert.True(t, c.Advancing())
		assert.Equal(t, CauseAdvance, c.Cause)
		assert.Equal(t, c.Old.Rank(), c.OldIndex)
		assert.Equal(t, c.New.Rank(), c.NewIndex)
	}
}

func TestMoveForwardToSkipsIntermediateGates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)
	seq := m.Sequence()

	require.True(t, m.MoveForwardTo(ctx, mustLookup(t, seq, "b2")))
	assert.Equal(t, "b2", m.Current().Name())

	assert.False(t, m.MoveForwardTo(ctx, mustLookup(t, seq, "a2")), "backward target is refused")
	assert.False(t, m.MoveForwardTo(ctx, mustLookup(t, seq, "b2")), "same target is refused")
	assert.Equal(t, "b2", m.Current().Name())
}

func TestMoveForwardToGatedTarget(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t)

	assert.False(t, m.MoveForwardTo(context.Background(), mustLookup(t, m.Sequence(), "b1")))
	assert.Equal(t, "a1", m.Current().Name())
}

func TestMoveForwardToForeignTargetIsNoop(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithInitial("a2"))
	other := marker.MustSequence("b2", "a1")

	rec := &recorder{}
	m.Subscribe(rec)

	assert.False(t, m.MoveForwardTo(context.Background(), mustLookup(t, other, "b2")))
	assert.Equal(t, "a2", m.Current().Name())
	assert.Empty(t, rec.changes)
}

func TestAdvanceFrom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)
	a1 := mustLookup(t, m.Sequence(), "a1")

	require.True(t, m.AdvanceFrom(ctx, a1))
	assert.Equal(t, "a2", m.Current().Name())

	assert.False(t, m.AdvanceFrom(ctx, a1), "current is no longer a1")
	assert.Equal(t, "a2", m.Current().Name())
}

func TestMoveToBypassesGates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)
	rec := &recorder{}
	m.Subscribe(rec)

	require.True(t, m.MoveTo(ctx, mustLookup(t, m.Sequence(), "b2")))
	require.True(t, m.MoveTo(ctx, mustLookup(t, m.Sequence(), "a2")))

	require.Len(t, rec.changes, 2)
	assert.Equal(t, Forward, rec.changes[0].Direction)
	assert.Equal(t, Backward, rec.changes[1].Direction)
	assert.True(t, rec.changes[1].Retreating())
	assert.Equal(t, CauseJump, rec.changes[1].Cause)
}

func TestMoveToCurrentIsIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithInitial("b1"))
	rec := &recorder{}
	m.Subscribe(rec)

	assert.False(t, m.MoveTo(context.Background(), m.Current()))
	assert.Empty(t, rec.changes)
}

func TestMoveToForeignRecoversToFirst(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithInitial("b2"))
	other := marker.MustSequence("x", "y")

	require.True(t, m.MoveTo(context.Background(), mustLookup(t, other, "y")))
	assert.Equal(t, m.Sequence().First(), m.Current())
}

func TestInitialRecovery(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithInitial("retired_marker"))
	assert.Equal(t, m.Sequence().First(), m.Current())

	m, _ = twoStepStage(t, WithInitial("b1"))
	assert.Equal(t, "b1", m.Current().Name(), "initial value is not gated")
}

func TestRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)
	rec := &recorder{}
	m.Subscribe(rec)

	require.True(t, m.Restore(ctx, "b2"))
	assert.False(t, m.Restore(ctx, "b2"))
	require.True(t, m.Restore(ctx, "gone"))
	assert.Equal(t, "a1", m.Current().Name())

	require.Len(t, rec.changes, 2)
	assert.Equal(t, CauseRestore, rec.changes[0].Cause)
	assert.Equal(t, CauseRestore, rec.changes[1].Cause)
}

func TestQueries(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithInitial("a2"))
	seq := m.Sequence()
	other := marker.MustSequence("x", "a1")

	assert.True(t, m.IsReached(mustLookup(t, seq, "a1")))
	assert.True(t, m.IsReached(mustLookup(t, seq, "a2")))
	assert.False(t, m.IsReached(mustLookup(t, seq, "b1")))

	assert.True(t, m.IsBefore(mustLookup(t, seq, "b2")))
	assert.False(t, m.IsBefore(mustLookup(t, seq, "a2")))
	assert.True(t, m.IsAfter(mustLookup(t, seq, "a1")))
	assert.False(t, m.IsAfter(mustLookup(t, seq, "a2")))

	foreign := mustLookup(t, other, "a1")
	assert.False(t, m.IsReached(foreign))
	assert.False(t, m.IsBefore(foreign))
	assert.False(t, m.IsAfter(foreign))

	pos, err := m.Position(mustLookup(t, seq, "b2"))
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	_, err = m.Position(foreign)

	var unknown *marker.UnknownMarkerError
	require.ErrorAs(t, err, &unknown)
	assert.True(t, errors.Is(err, marker.ErrUnknownMarker))
}

func TestListenersRunInOrderAndUnsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)

	var order []string

	unsubFirst := m.Subscribe(ListenerFunc(func(context.Context, Change) {
		order = append(order, "first")
	}))
	m.Subscribe(ListenerFunc(func(context.Context, Change) {
		order = append(order, "second")
	}))

	require.True(t, m.MoveForward(ctx))
	assert.Equal(t, []string{"first", "second"}, order)

	unsubFirst()
	unsubFirst()

	order = nil

	require.True(t, m.MoveTo(ctx, m.Sequence().First()))
	assert.Equal(t, []string{"second"}, order)
}

func TestListenerMayRequestNestedTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := twoStepStage(t)
	a2 := mustLookup(t, m.Sequence(), "a2")

	var seen []string

	m.Subscribe(ListenerFunc(func(ctx context.Context, change Change) {
		seen = append(seen, change.New.Name())

		if change.New == a2 {
			m.MoveTo(ctx, m.Sequence().Last())
		}
	}))

	require.True(t, m.MoveForward(ctx))
	assert.Equal(t, []string{"a2", "b2"}, seen)
	assert.Equal(t, "b2", m.Current().Name())
}

func TestGatingIsMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	seq := marker.MustSequence("m0", "m1", "m2", "m3", "m4")
	gates := gate.NewRegistry()
	gates.Register(mustLookup(t, seq, "m2"), func() bool { return false })

	m := New(seq, gates)

	for range 10 {
		m.MoveForward(ctx)
		assert.LessOrEqual(t, m.CurrentIndex(), 1)
	}

	assert.False(t, m.MoveForwardTo(ctx, mustLookup(t, seq, "m2")))
	assert.True(t, m.MoveForwardTo(ctx, mustLookup(t, seq, "m3")))
}

func TestDirectionAndCauseStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "backward", Backward.String())
	assert.Equal(t, "stationary", Stationary.String())
	assert.Equal(t, "unknown", Direction(42).String())

	assert.Equal(t, "advance", CauseAdvance.String())
	assert.Equal(t, "jump", CauseJump.String())
	assert.Equal(t, "restore", CauseRestore.String())
	assert.Equal(t, "unknown", Cause(42).String())
}

func TestNilSequencePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		New(nil, nil)
	})
}
