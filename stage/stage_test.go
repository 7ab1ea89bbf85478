package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/cosmicds/markerflow/effects"
	"github.com/cosmicds/markerflow/logger"
	"github.com/cosmicds/markerflow/progress"
	"github.com/cosmicds/markerflow/statemachine"
	"github.com/cosmicds/markerflow/stepper"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBuiltin(t *testing.T, name string) *Config {
	t.Helper()

	data, err := Builtin().LoadByName(name)
	require.NoError(t, err)

	cfg, err := LoadConfigFromBytes(data)
	require.NoError(t, err)

	return cfg
}

func TestTwoStepWalkthrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := progress.NewStore()
	model := stepper.NewModel(2)

	s, err := New(validConfig(), store, model, WithLogger(slogt.New(t)))
	require.NoError(t, err)

	model.OnChange = func(index int) {
		s.OnStepIndexChange(ctx, index)
	}

	assert.Equal(t, "a1", s.Current().Name())
	assert.Equal(t, []string{"b1"}, s.Locked())

	require.True(t, s.Advance(ctx))
	assert.Equal(t, "a2", s.Current().Name())
	assert.Equal(t, 0, model.StepIndex())

	assert.False(t, s.Advance(ctx))
	assert.Equal(t, "a2", s.Current().Name())

	store.Complete("q_a2")
	assert.Empty(t, s.Locked())

	require.True(t, s.Advance(ctx))
	assert.Equal(t, "b1", s.Current().Name())
	assert.Equal(t, 1, model.StepIndex())
	assert.True(t, model.StepComplete(0))

	require.True(t, s.Advance(ctx))
	assert.True(t, s.Complete())

	model.SetStepIndex(0)
	assert.Equal(t, "a1", s.Current().Name(), "stepper back button jumps to the step marker")
	assert.False(t, s.Complete())
}

func TestNewRequiresProgressForGates(t *testing.T) {
	t.Parallel()

	_, err := New(validConfig(), nil, nil)
	require.ErrorIs(t, err, ErrProgressRequired)

	cfg := validConfig()
	cfg.Gates = nil

	s, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, s.SessionID())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Name = ""

	_, err := New(cfg, progress.NewStore(), nil)
	require.ErrorIs(t, err, ErrConfigNameRequired)
}

func TestDefaultStepperRoutesNavigation(t *testing.T) {
	t.Parallel()

	s, err := New(validConfig(), progress.NewStore(), nil, WithSessionID("session-1"))
	require.NoError(t, err)
	assert.Equal(t, "session-1", s.SessionID())

	model, ok := s.Stepper().(*stepper.Model)
	require.True(t, ok)

	model.SetStepIndex(1)
	assert.Equal(t, "b1", s.Current().Name())
}

func TestBridgeRunsBeforeEffects(t *testing.T) {
	t.Parallel()

	model := stepper.NewModel(2)
	cfg := validConfig()

	seq, err := cfg.Sequence()
	require.NoError(t, err)

	b1, err := seq.Lookup("b1")
	require.NoError(t, err)

	var seenIndex int

	s, err := New(cfg, progress.NewStore("q_a2"), model,
		WithEffect("read-step", effects.Entering(b1), func(context.Context) error {
			seenIndex = model.StepIndex()

			return nil
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.True(t, s.Advance(ctx))
	require.True(t, s.Advance(ctx))
	assert.Equal(t, 1, seenIndex)
	assert.Equal(t, 1, s.Effects().Len())
}

func TestAdvanceFromAndJumpTo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(validConfig(), progress.NewStore(), nil)
	require.NoError(t, err)

	moved, err := s.AdvanceFrom(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = s.AdvanceFrom(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, moved)

	_, err = s.AdvanceFrom(ctx, "zz")
	require.Error(t, err)

	moved, err = s.JumpTo(ctx, "b2")
	require.NoError(t, err)
	assert.True(t, moved)

	_, err = s.JumpTo(ctx, "zz")
	require.Error(t, err)
}

func TestBackwardJumpMovesStepper(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	model := stepper.NewModel(2)

	s, err := New(validConfig(), progress.NewStore("q_a2"), model, WithLogger(slogt.New(t)))
	require.NoError(t, err)

	model.OnChange = func(index int) {
		s.OnStepIndexChange(ctx, index)
	}

	for range 3 {
		require.True(t, s.Advance(ctx))
	}

	assert.Equal(t, "b2", s.Current().Name())
	assert.Equal(t, 1, model.StepIndex())

	moved, err := s.JumpTo(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "a1", s.Current().Name())
	assert.Equal(t, 0, model.StepIndex(), "the stepper follows the machine back onto a step marker")
	assert.True(t, model.StepComplete(0), "completion survives a backward jump")
}

func TestInitialAppliesRewind(t *testing.T) {
	t.Parallel()

	cfg := loadBuiltin(t, "angular_size")

	s, err := New(cfg, progress.NewStore(), nil, WithInitial("ang_siz2"))
	require.NoError(t, err)
	assert.Equal(t, "cho_row1", s.Current().Name())
	assert.True(t, s.Highlighted("table"))
	assert.False(t, s.Highlighted("csv"))
	assert.False(t, s.Highlighted("nope"))

	s, err = New(cfg, progress.NewStore(), nil, WithInitial("est_dis4"))
	require.NoError(t, err)
	assert.Equal(t, "est_dis4", s.Current().Name())
	assert.Equal(t, 1, s.Stepper().StepIndex(), "initial position syncs the stepper")

	s, err = New(cfg, progress.NewStore(), nil, WithInitial("retired"))
	require.NoError(t, err)
	assert.Equal(t, "ang_siz1", s.Current().Name())
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := loadBuiltin(t, "angular_size")

	var buf bytes.Buffer

	log := slog.New(slog.NewJSONHandler(&buf, nil))

	source, err := New(cfg, progress.NewStore(), nil)
	require.NoError(t, err)

	_, err = source.JumpTo(ctx, "est_dis3")
	require.NoError(t, err)

	data, err := json.Marshal(source.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, source.Sequence().Fingerprint(), snap.Fingerprint)

	target, err := New(cfg, progress.NewStore(), nil, WithLogger(log))
	require.NoError(t, err)

	require.NoError(t, target.Restore(ctx, snap))
	assert.Equal(t, "cho_row2", target.Current().Name(), "est_dis3 rewinds to the row choice")
	assert.Equal(t, 1, target.Stepper().StepIndex())
	assert.NotContains(t, buf.String(), "different marker list")

	snap.Fingerprint = "0000000000000000"
	snap.Marker = "two_com1"
	require.NoError(t, target.Restore(ctx, snap))
	assert.Equal(t, "two_com1", target.Current().Name())
	assert.Contains(t, buf.String(), "different marker list")

	err = target.Restore(ctx, Snapshot{Stage: "professional_data", Marker: "pro_dat1"})
	require.ErrorIs(t, err, ErrSnapshotStage)
	assert.Equal(t, "two_com1", target.Current().Name())
}

func TestRestoreSyncsStepperBackwards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := New(loadBuiltin(t, "angular_size"), progress.NewStore(), nil)
	require.NoError(t, err)

	_, err = s.JumpTo(ctx, "est_dis1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stepper().StepIndex())

	require.NoError(t, s.Restore(ctx, Snapshot{Stage: "angular_size", Marker: "ang_siz3"}))
	assert.Equal(t, 0, s.Stepper().StepIndex())
}

func TestListenersSeeStageContext(t *testing.T) {
	t.Parallel()

	s, err := New(validConfig(), progress.NewStore(), nil, WithSessionID("abc"))
	require.NoError(t, err)

	var gotStage, gotSession string

	s.Machine().Subscribe(statemachine.ListenerFunc(func(ctx context.Context, _ statemachine.Change) {
		gotStage, _ = logger.GetStage(ctx)
		gotSession, _ = logger.GetSessionID(ctx)
	}))

	require.True(t, s.Advance(context.Background()))
	assert.Equal(t, "two_step", gotStage)
	assert.Equal(t, "abc", gotSession)
}
