package stagetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cosmicds/markerflow/stage"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// WriteConfig writes config as YAML into a temporary directory and returns
// the file path, suitable for stage.LoadConfig.
func WriteConfig(t *testing.T, config *stage.Config) string {
	t.Helper()

	data, err := yaml.Marshal(config)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), config.Name+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

// CommonTestConfigs provides frequently used stage configurations.
var CommonTestConfigs = struct {
	// TwoStep has two steps of two markers each; the second step is gated
	// on question q_a2.
	TwoStep func() *stage.Config
	// Ungated has two steps and no gates.
	Ungated func() *stage.Config
	// Rewind is TwoStep with a restore rewind on b2 and a highlight group.
	Rewind func() *stage.Config
}{
	TwoStep: func() *stage.Config {
		return &stage.Config{
			Name:    "two_step",
			Title:   "Two Step",
			Markers: []string{"a1", "a2", "b1", "b2"},
			Steps: []stage.StepConfig{
				{Marker: "a1", Title: "first part"},
				{Marker: "b1", Title: "second part"},
			},
			Gates: []stage.GateConfig{
				{Marker: "b1", Questions: []string{"q_a2"}},
			},
		}
	},
	Ungated: func() *stage.Config {
		return &stage.Config{
			Name:    "ungated",
			Title:   "Ungated",
			Markers: []string{"intro", "read", "measure", "done"},
			Steps: []stage.StepConfig{
				{Marker: "intro", Title: "introduction"},
				{Marker: "measure", Title: "measurement"},
			},
		}
	},
	Rewind: func() *stage.Config {
		return &stage.Config{
			Name:    "rewind",
			Title:   "Rewind",
			Markers: []string{"a1", "a2", "b1", "b2"},
			Steps: []stage.StepConfig{
				{Marker: "a1", Title: "first part"},
				{Marker: "b1", Title: "second part"},
			},
			Gates: []stage.GateConfig{
				{Marker: "b1", Questions: []string{"q_a2"}},
			},
			Highlights:      map[string][]string{"table": {"a2", "b1"}},
			RewindOnRestore: []string{"b2"},
		}
	},
}
