package stage

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/cosmicds/markerflow/marker"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config defines a lesson stage: its markers in order, the markers that
// start a visible step, and the question gates.
type Config struct {
	Name    string       `json:"name"    yaml:"name"`
	Title   string       `json:"title"   yaml:"title"`
	Markers []string     `json:"markers" yaml:"markers"`
	Steps   []StepConfig `json:"steps"   yaml:"steps"`
	Gates   []GateConfig `json:"gates"   yaml:"gates"`

	// Highlights names groups of markers during which a part of the page is
	// emphasised, e.g. "table" or "csv".
	Highlights map[string][]string `json:"highlights" yaml:"highlights"`

	// RewindOnRestore lists markers that a restored session steps back from
	// by one, because they depend on page state that is not persisted.
	RewindOnRestore []string `json:"rewindOnRestore" yaml:"rewind_on_restore"`
}

// StepConfig maps a stepper position to the marker that starts it.
type StepConfig struct {
	Marker string `json:"marker" yaml:"marker"`
	Title  string `json:"title"  yaml:"title"`
}

// GateConfig locks a marker until every listed question is completed.
type GateConfig struct {
	Marker    string   `json:"marker"    yaml:"marker"`
	Questions []string `json:"questions" yaml:"questions"`
}

// LoadConfig loads a stage configuration by path or name.
// Supports two modes:
//   - Path mode: a value containing '/', '\', or ending in '.yaml' is read from the filesystem
//     Example: LoadConfig("testdata/angular_size.yaml")
//   - Name mode: a bare name is loaded via the registered ConfigLoader
//     Example: LoadConfig("professional_data")
//
// The built-in stages are registered by default; SetConfigLoader replaces them.
func LoadConfig(pathOrName string) (*Config, error) {
	data, err := ReadConfig(pathOrName)
	if err != nil {
		return nil, err
	}

	return LoadConfigFromBytes(data)
}

// ReadConfig returns the raw YAML of a stage by path or name, using the same
// rules as LoadConfig, without parsing or validating it.
func ReadConfig(pathOrName string) ([]byte, error) {
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(strings.ToLower(pathOrName), ".yaml")

	if isPath {
		data, err := os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read stage file %q: %w", pathOrName, err)
		}

		return data, nil
	}

	loader := configLoader()
	if loader == nil {
		return nil, fmt.Errorf("%w; use SetConfigLoader() or provide a file path", ErrNoConfigLoader)
	}

	data, err := loader.LoadByName(pathOrName)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage %q (available: %v): %w", pathOrName, loader.ListAvailable(), err)
	}

	return data, nil
}

// LoadConfigFromBytes parses and validates a YAML stage configuration.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from a filesystem such as embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks that the configuration describes a usable stage.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	seq, err := c.Sequence()
	if err != nil {
		return fmt.Errorf("stage %s: %w", c.Name, err)
	}

	if len(c.Steps) == 0 {
		return fmt.Errorf("stage %s: %w", c.Name, ErrStepsRequired)
	}

	for i, step := range c.Steps {
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("stage %s: step %d (%s): %w", c.Name, i, step.Marker, ErrStepTitleRequired)
		}
	}

	_, err = c.stepSubset(seq)
	if err != nil {
		return fmt.Errorf("stage %s: steps: %w", c.Name, err)
	}

	gated := make(map[string]bool, len(c.Gates))

	for _, g := range c.Gates {
		if g.Marker == "" {
			return fmt.Errorf("stage %s: %w", c.Name, ErrGateMarkerRequired)
		}

		if gated[g.Marker] {
			return fmt.Errorf("stage %s: %w: %s", c.Name, ErrDuplicateGate, g.Marker)
		}

		gated[g.Marker] = true

		if _, err := seq.Lookup(g.Marker); err != nil {
			return fmt.Errorf("stage %s: gate: %w", c.Name, err)
		}

		if len(g.Questions) == 0 {
			return fmt.Errorf("stage %s: gate %s: %w", c.Name, g.Marker, ErrGateQuestionsRequired)
		}
	}

	for _, name := range c.RewindOnRestore {
		m, err := seq.Lookup(name)
		if err != nil {
			return fmt.Errorf("stage %s: rewind_on_restore: %w", c.Name, err)
		}

		if m == seq.First() {
			return fmt.Errorf("stage %s: %w: %s", c.Name, ErrRewindFirstMarker, name)
		}
	}

	for group, names := range c.Highlights {
		for _, name := range names {
			if !seq.Contains(name) {
				return fmt.Errorf("stage %s: highlight %s: %w", c.Name, group,
					&marker.UnknownMarkerError{Name: name})
			}
		}
	}

	return nil
}

// Sequence builds the marker sequence declared by the configuration.
func (c *Config) Sequence() (*marker.Sequence, error) {
	return marker.NewSequence(c.Markers...)
}

func (c *Config) stepSubset(seq *marker.Sequence) (*marker.StepSubset, error) {
	names := make([]string, 0, len(c.Steps))
	for _, step := range c.Steps {
		names = append(names, step.Marker)
	}

	return marker.NewStepSubset(seq, names...)
}

// StepTitles returns the step titles as the stepper displays them, in upper case.
func (c *Config) StepTitles() []string {
	upper := cases.Upper(language.English)

	titles := make([]string, 0, len(c.Steps))
	for _, step := range c.Steps {
		titles = append(titles, upper.String(strings.TrimSpace(step.Title)))
	}

	return titles
}
