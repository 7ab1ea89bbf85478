package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cosmicds/markerflow/stage"
)

var (
	// ErrMarkerNotFound is returned when a fix names a marker the config does not declare.
	ErrMarkerNotFound = errors.New("marker not found")
	// ErrMarkerAlreadyExists is returned when attempting to rename to an existing marker name.
	ErrMarkerAlreadyExists = errors.New("marker already exists")
	// ErrGateNotFound is returned when attempting to remove a gate that doesn't exist.
	ErrGateNotFound = errors.New("gate not found")
	// ErrHighlightNotFound is returned when attempting to remove a highlight group that doesn't exist.
	ErrHighlightNotFound = errors.New("highlight group not found")
)

// Fix represents an automatic fix for a validation issue.
type Fix struct {
	Description string
	Apply       func(config *stage.Config) error
}

// RenameMarker creates a fix that renames a marker everywhere the config
// refers to it.
func RenameMarker(oldName, newName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Rename marker from '%s' to '%s'", oldName, newName),
		Apply: func(config *stage.Config) error {
			if slices.Contains(config.Markers, newName) {
				return fmt.Errorf("%w: '%s'", ErrMarkerAlreadyExists, newName)
			}

			idx := slices.Index(config.Markers, oldName)
			if idx < 0 {
				return fmt.Errorf("%w: '%s'", ErrMarkerNotFound, oldName)
			}

			config.Markers[idx] = newName

			for i, step := range config.Steps {
				if step.Marker == oldName {
					config.Steps[i].Marker = newName
				}
			}

			for i, g := range config.Gates {
				if g.Marker == oldName {
					config.Gates[i].Marker = newName
				}
			}

			for _, names := range config.Highlights {
				for i, name := range names {
					if name == oldName {
						names[i] = newName
					}
				}
			}

			for i, name := range config.RewindOnRestore {
				if name == oldName {
					config.RewindOnRestore[i] = newName
				}
			}

			return nil
		},
	}
}

// RemoveGate creates a fix that removes the gate on a marker.
func RemoveGate(markerName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove gate on '%s'", markerName),
		Apply: func(config *stage.Config) error {
			before := len(config.Gates)

			config.Gates = slices.DeleteFunc(config.Gates, func(g stage.GateConfig) bool {
				return g.Marker == markerName
			})

			if len(config.Gates) == before {
				return fmt.Errorf("%w: '%s'", ErrGateNotFound, markerName)
			}

			return nil
		},
	}
}

// RemoveHighlight creates a fix that removes a highlight group.
func RemoveHighlight(group string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove highlight group '%s'", group),
		Apply: func(config *stage.Config) error {
			if _, ok := config.Highlights[group]; !ok {
				return fmt.Errorf("%w: '%s'", ErrHighlightNotFound, group)
			}

			delete(config.Highlights, group)

			return nil
		},
	}
}

// ApplyFixes applies a list of fixes to a config.
func ApplyFixes(config *stage.Config, fixes []*Fix) error {
	for _, fix := range fixes {
		if fix != nil && fix.Apply != nil {
			err := fix.Apply(config)
			if err != nil {
				return fmt.Errorf("failed to apply fix '%s': %w", fix.Description, err)
			}
		}
	}

	return nil
}
