//nolint:mnd // Arithmetic for case conversion
package validator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cosmicds/markerflow/stage"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a config for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(config *stage.Config) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&structureRule{},
		&namingConventionRule{},
		&gatedFirstMarkerRule{},
		&leadingMarkersRule{},
		&emptyHighlightRule{},
	}
}

// RegisteredRules stores custom validation rules. Validate runs them after
// the defaults.
var RegisteredRules []Rule

// RegisterRule adds a custom validation rule.
func RegisterRule(rule Rule) {
	RegisteredRules = append(RegisteredRules, rule)
}

// structureRule reports what stage.Config.Validate rejects.
type structureRule struct{}

func (r *structureRule) Name() string {
	return "Structure"
}

func (r *structureRule) Severity() Severity {
	return SeverityError
}

func (r *structureRule) Check(config *stage.Config) RuleResult {
	err := config.Validate()
	if err == nil {
		return RuleResult{}
	}

	return RuleResult{Errors: []ValidationError{{
		Code:    "CONFIG_INVALID",
		Message: err.Error(),
	}}}
}

// namingConventionRule checks that the stage and marker names are snake_case.
// Both end up as log fields and metric labels.
type namingConventionRule struct{}

func (r *namingConventionRule) Name() string {
	return "NamingConvention"
}

func (r *namingConventionRule) Severity() Severity {
	return SeverityWarning
}

func (r *namingConventionRule) Check(config *stage.Config) RuleResult {
	var warnings []ValidationWarning

	if !isSnakeCase(config.Name) {
		warnings = append(warnings, ValidationWarning{
			Code:    "NAMING_CONVENTION",
			Message: fmt.Sprintf("Stage '%s' should use snake_case naming (suggested: '%s')", config.Name, toSnakeCase(config.Name)),
		})
	}

	for _, name := range config.Markers {
		if !isSnakeCase(name) {
			suggested := toSnakeCase(name)

			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("Marker '%s' should use snake_case naming (suggested: '%s')", name, suggested),
				Location: Location{Marker: name},
				Fix:      RenameMarker(name, suggested),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// gatedFirstMarkerRule flags gates that can never be consulted: nothing
// advances into the first marker.
type gatedFirstMarkerRule struct{}

func (r *gatedFirstMarkerRule) Name() string {
	return "GatedFirstMarker"
}

func (r *gatedFirstMarkerRule) Severity() Severity {
	return SeverityWarning
}

func (r *gatedFirstMarkerRule) Check(config *stage.Config) RuleResult {
	if len(config.Markers) == 0 {
		return RuleResult{}
	}

	first := config.Markers[0]

	var warnings []ValidationWarning

	for _, g := range config.Gates {
		if g.Marker == first {
			warnings = append(warnings, ValidationWarning{
				Code:     "GATE_NEVER_CONSULTED",
				Message:  fmt.Sprintf("Gate on first marker '%s' can never block a forward move", first),
				Location: Location{Marker: first},
				Fix:      RemoveGate(first),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// leadingMarkersRule flags markers before the first step. While one of them
// is current no step is reached and the stepper stays on step 0.
type leadingMarkersRule struct{}

func (r *leadingMarkersRule) Name() string {
	return "LeadingMarkers"
}

func (r *leadingMarkersRule) Severity() Severity {
	return SeverityWarning
}

func (r *leadingMarkersRule) Check(config *stage.Config) RuleResult {
	if len(config.Markers) == 0 || len(config.Steps) == 0 {
		return RuleResult{}
	}

	firstStep := config.Steps[0].Marker

	idx := slices.Index(config.Markers, firstStep)
	if idx <= 0 {
		return RuleResult{}
	}

	return RuleResult{Warnings: []ValidationWarning{{
		Code: "MARKERS_BEFORE_FIRST_STEP",
		Message: fmt.Sprintf("%d marker(s) before first step marker '%s' belong to no step",
			idx, firstStep),
		Location: Location{Marker: config.Markers[0]},
	}}}
}

// emptyHighlightRule flags highlight groups that name no markers.
type emptyHighlightRule struct{}

func (r *emptyHighlightRule) Name() string {
	return "EmptyHighlight"
}

func (r *emptyHighlightRule) Severity() Severity {
	return SeverityWarning
}

func (r *emptyHighlightRule) Check(config *stage.Config) RuleResult {
	var warnings []ValidationWarning

	for _, group := range slices.Sorted(maps.Keys(config.Highlights)) {
		if len(config.Highlights[group]) == 0 {
			warnings = append(warnings, ValidationWarning{
				Code:    "EMPTY_HIGHLIGHT",
				Message: fmt.Sprintf("Highlight group '%s' names no markers and is never active", group),
				Fix:     RemoveHighlight(group),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// Helper functions

func isSnakeCase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}

		if r == '-' || r == ' ' {
			return false
		}
	}

	return true
}

func toSnakeCase(s string) string {
	var result []rune

	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				result = append(result, '_')
			}

			result = append(result, r+32) // Convert to lowercase
		case r == '-' || r == ' ':
			result = append(result, '_')
		default:
			result = append(result, r)
		}
	}

	return string(result)
}
