package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStepSubsetValidation(t *testing.T) {
	t.Parallel()

	seq := MustSequence("a1", "a2", "b1", "b2", "c1")

	_, err := NewStepSubset(seq)
	require.ErrorIs(t, err, ErrEmptySubset)

	_, err = NewStepSubset(seq, "a1", "z9")
	require.ErrorIs(t, err, ErrUnknownMarker)

	_, err = NewStepSubset(seq, "b1", "a1")
	require.ErrorIs(t, err, ErrSubsetOrder)

	_, err = NewStepSubset(seq, "a1", "a1")
	require.ErrorIs(t, err, ErrSubsetOrder)

	sub, err := NewStepSubset(seq, "a1", "b1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())
	assert.Same(t, seq, sub.Sequence())
}

func TestStepSubsetPositions(t *testing.T) {
	t.Parallel()

	seq := MustSequence("a1", "a2", "b1", "b2", "c1")
	sub, err := NewStepSubset(seq, "a1", "b1", "c1")
	require.NoError(t, err)

	b1, _ := seq.Lookup("b1")
	b2, _ := seq.Lookup("b2")

	idx, ok := sub.IndexOf(b1)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = sub.IndexOf(b2)
	assert.False(t, ok)
	assert.False(t, sub.Contains(b2))

	at, err := sub.At(2)
	require.NoError(t, err)
	assert.Equal(t, "c1", at.Name())

	_, err = sub.At(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStepSubsetClamp(t *testing.T) {
	t.Parallel()

	sub, err := NewStepSubset(MustSequence("a1", "a2", "b1"), "a1", "b1")
	require.NoError(t, err)

	assert.Equal(t, 0, sub.Clamp(-4))
	assert.Equal(t, 0, sub.Clamp(0))
	assert.Equal(t, 1, sub.Clamp(1))
	assert.Equal(t, 1, sub.Clamp(7))
}

func TestStepSubsetLastReached(t *testing.T) {
	t.Parallel()

	seq := MustSequence("intro", "a1", "a2", "b1", "b2", "c1", "c2")
	sub, err := NewStepSubset(seq, "a1", "b1", "c1")
	require.NoError(t, err)

	want := map[string]int{
		"intro": 0,
		"a1":    0,
		"a2":    0,
		"b1":    1,
		"b2":    1,
		"c1":    2,
		"c2":    2,
	}

	for name, pos := range want {
		m, err := seq.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, pos, sub.LastReached(m), name)
	}

	assert.Equal(t, 0, sub.LastReached(Marker{name: "ghost"}))
}
