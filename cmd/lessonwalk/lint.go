package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cosmicds/markerflow/stage"
	"github.com/cosmicds/markerflow/validator"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errLintFailed = errors.New("lint found errors")

var (
	lintStrict bool
	lintFix    bool
)

var lintCmd = &cobra.Command{
	Use:   "lint <stage|path>...",
	Short: "Check stage configurations for problems",
	Long: `Check stage configurations for errors and style problems.

With --fix the fixed configuration of each stage is printed as YAML.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as errors")
	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "Apply available fixes and print the result")
}

func runLint(_ *cobra.Command, args []string) error {
	failed := false

	for _, arg := range args {
		data, err := stage.ReadConfig(arg)
		if err != nil {
			return err
		}

		result, err := validator.ValidateBytes(data, lintStrict)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}

		fmt.Fprintf(os.Stderr, "%s: %s", arg, result)

		if !result.Valid {
			failed = true
		}

		if lintFix {
			if err := printFixed(data, result); err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
		}
	}

	if failed {
		return errLintFailed
	}

	return nil
}

func printFixed(data []byte, result validator.ValidationResult) error {
	var cfg stage.Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	if err := validator.ApplyFixes(&cfg, result.Fixes()); err != nil {
		return err
	}

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)

	return err
}
