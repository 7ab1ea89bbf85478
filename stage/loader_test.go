package stage

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSLoader(t *testing.T) {
	t.Parallel()

	stage := []byte("name: s\nmarkers: [x]\nsteps:\n  - marker: x\n    title: only\n")
	loader := NewFSLoader(fstest.MapFS{
		"stages/stage10.yaml": {Data: stage},
		"stages/stage2.yaml":  {Data: stage},
		"stages/stage1.yaml":  {Data: stage},
		"stages/notes.txt":    {Data: []byte("ignored")},
	}, "stages")

	assert.Equal(t, []string{"stage1", "stage2", "stage10"}, loader.ListAvailable())

	data, err := loader.LoadByName("stage2")
	require.NoError(t, err)
	assert.Equal(t, stage, data)

	_, err = loader.LoadByName("../stage2")
	require.ErrorIs(t, err, fs.ErrInvalid)

	_, err = loader.LoadByName("stage3")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBuiltinStages(t *testing.T) {
	t.Parallel()

	loader := Builtin()
	assert.Equal(t, []string{"angular_size", "professional_data"}, loader.ListAvailable())

	for _, name := range loader.ListAvailable() {
		data, err := loader.LoadByName(name)
		require.NoError(t, err)

		cfg, err := LoadConfigFromBytes(data)
		require.NoError(t, err, name)
		assert.Equal(t, name, cfg.Name)
	}
}

// Cannot use t.Parallel() because the default loader is package state.
//
//nolint:paralleltest // Test modifies the default config loader
func TestLoadConfigByName(t *testing.T) {
	cfg, err := LoadConfig("angular_size")
	require.NoError(t, err)
	assert.Equal(t, []string{"MEASURE SIZE", "ESTIMATE DISTANCE"}, cfg.StepTitles())

	_, err = LoadConfig("no_such_stage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: [angular_size professional_data]")

	SetConfigLoader(nil)
	t.Cleanup(func() {
		SetConfigLoader(Builtin())
	})

	_, err = LoadConfig("angular_size")
	require.ErrorIs(t, err, ErrNoConfigLoader)
}
