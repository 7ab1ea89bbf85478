// Package visualizer renders a lesson stage as a Mermaid state diagram.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cosmicds/markerflow/stage"
)

// ErrConfigNil is returned for a nil stage configuration.
var ErrConfigNil = errors.New("config cannot be nil")

type palette struct {
	step, gated, current string
}

var palettes = map[string]palette{ //nolint:gochecknoglobals
	"default": {
		step:    "fill:#e1f5ff,stroke:#01579b,stroke-width:2px",
		gated:   "fill:#ffebee,stroke:#c62828,stroke-width:2px",
		current: "fill:#fff9c4,stroke:#f57f17,stroke-width:3px",
	},
	"dark": {
		step:    "fill:#0d47a1,stroke:#90caf9,color:#fff",
		gated:   "fill:#b71c1c,stroke:#ef9a9a,color:#fff",
		current: "fill:#f57f17,stroke:#fff59d,stroke-width:3px,color:#000",
	},
}

// GenerateMermaid converts a stage configuration to a Mermaid state diagram.
func GenerateMermaid(config *stage.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromFile loads a stage by path or name and generates a Mermaid diagram.
func GenerateMermaidFromFile(pathOrName string, opts Options) (string, error) {
	config, err := stage.LoadConfig(pathOrName)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaidWithOptions(config, opts)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
func GenerateMermaidWithOptions(config *stage.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if err := config.Validate(); err != nil {
		return "", err
	}

	colors, ok := palettes[opts.Theme]
	if !ok {
		colors = palettes["default"]
	}

	direction := strings.ToUpper(opts.Direction)

	switch direction {
	case "":
		direction = "LR"
	case "TD":
		// State diagrams spell top-down TB.
		direction = "TB"
	}

	titles := config.StepTitles()

	stepTitle := make(map[string]string, len(config.Steps))
	for i, step := range config.Steps {
		stepTitle[step.Marker] = titles[i]
	}

	gates := make(map[string][]string, len(config.Gates))
	for _, g := range config.Gates {
		gates[g.Marker] = g.Questions
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", direction)
	fmt.Fprintf(&sb, "    [*] --> %s\n", config.Markers[0])

	for i, name := range config.Markers {
		if title, isStep := stepTitle[name]; isStep && opts.ShowSteps {
			fmt.Fprintf(&sb, "    %s: %s\\n[%s]\n", name, name, title)
		}

		switch {
		case name == opts.Current:
			fmt.Fprintf(&sb, "    class %s current\n", name)
		case gates[name] != nil:
			fmt.Fprintf(&sb, "    class %s gated\n", name)
		case stepTitle[name] != "":
			fmt.Fprintf(&sb, "    class %s stepMarker\n", name)
		}

		if i+1 < len(config.Markers) {
			next := config.Markers[i+1]

			label := ""
			if questions := gates[next]; opts.ShowGates && len(questions) > 0 {
				label = ": " + strings.Join(questions, ", ")
			}

			fmt.Fprintf(&sb, "    %s --> %s%s\n", name, next, label)
		} else {
			fmt.Fprintf(&sb, "    %s --> [*]\n", name)
		}
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "    classDef stepMarker %s\n", colors.step)
	fmt.Fprintf(&sb, "    classDef gated %s\n", colors.gated)
	fmt.Fprintf(&sb, "    classDef current %s\n", colors.current)

	sb.WriteString("```\n")

	return sb.String(), nil
}
