// Package validator lints stage configurations beyond the hard checks of
// stage.Config.Validate, and offers fixes for what it finds.
package validator

import (
	"fmt"
	"os"
	"strings"

	"github.com/cosmicds/markerflow/stage"
	"gopkg.in/yaml.v3"
)

// ValidationResult contains the results of validating a stage config.
type ValidationResult struct {
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with fix suggestions.
type ValidationError struct {
	Code     string   // Error code like "CONFIG_INVALID"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string
	Message  string
	Location Location
	Fix      *Fix
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // YAML example showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File   string // Config file path
	Marker string // Marker name if applicable
}

// Validate lints config with the default and registered rules.
func Validate(config *stage.Config) ValidationResult {
	return ValidateWithRules(config, append(DefaultRules(), RegisteredRules...))
}

// ValidateFile parses a stage file and validates it. Unlike stage.LoadConfig
// the file is not rejected up front, so every finding is reported.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict parses a stage file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions parses a stage file and validates it with options.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return loadFailed(path, err), err
	}

	result, err := ValidateBytes(data, strict)
	if err != nil {
		return loadFailed(path, err), err
	}

	// Set file location for all errors and warnings
	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateBytes parses YAML stage data and validates it.
func ValidateBytes(data []byte, strict bool) (ValidationResult, error) {
	var config stage.Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if strict {
		return ValidateWithRulesStrict(&config, append(DefaultRules(), RegisteredRules...)), nil
	}

	return Validate(&config), nil
}

func loadFailed(path string, err error) ValidationResult {
	return ValidationResult{
		Valid: false,
		Errors: []ValidationError{
			{
				Code:     "CONFIG_LOAD_FAILED",
				Message:  fmt.Sprintf("Failed to load config: %v", err),
				Location: Location{File: path},
			},
		},
	}
}

// ValidateWithRules validates using custom rules.
func ValidateWithRules(config *stage.Config, rules []Rule) ValidationResult {
	var result ValidationResult

	result.Valid = true

	for _, rule := range rules {
		ruleResult := rule.Check(config)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	result.Suggestions = generateSuggestions(config)

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(config *stage.Config, rules []Rule) ValidationResult {
	result := ValidateWithRules(config, rules)

	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError{
			Code:     warning.Code,
			Message:  warning.Message,
			Location: warning.Location,
			Fix:      warning.Fix,
		})
	}

	result.Warnings = nil

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// Fixes collects every fix attached to an error or warning.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(config *stage.Config) []Suggestion {
	var suggestions []Suggestion

	if len(config.Gates) == 0 && len(config.Steps) > 1 {
		suggestions = append(suggestions, Suggestion{
			Message: "Consider gating later steps on the questions of earlier ones",
			Example: `gates:
  - marker: est_dis1
    questions: [ang_meas_consensus]`,
		})
	}

	if len(config.Highlights) > 0 && len(config.RewindOnRestore) == 0 {
		suggestions = append(suggestions, Suggestion{
			Message: "Highlighted markers often depend on page state; consider rewind_on_restore for them",
			Example: `rewind_on_restore: [ang_siz2]`,
		})
	}

	if strings.TrimSpace(config.Title) == "" {
		suggestions = append(suggestions, Suggestion{
			Message: "Consider giving the stage a title for status cards and diagrams",
			Example: `title: "Angular Size"`,
		})
	}

	return suggestions
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Configuration is valid\n")
	} else {
		fmt.Fprintf(&sb, "✗ Configuration has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			fmt.Fprintf(&sb, "  [%s] %s", err.Code, err.Message)

			if err.Location.Marker != "" {
				fmt.Fprintf(&sb, " (marker: %s)", err.Location.Marker)
			}

			sb.WriteString("\n")

			if err.Fix != nil {
				fmt.Fprintf(&sb, "    Fix: %s\n", err.Fix.Description)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "\n⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", warn.Code, warn.Message)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "\n💡 %d suggestion(s) for improvement\n", len(r.Suggestions))
	}

	return sb.String()
}
