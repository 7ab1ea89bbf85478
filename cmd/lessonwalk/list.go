package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cosmicds/markerflow/stage"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in stages",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json-output", false, "Output the stage list as JSON")
}

type stageSummary struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Markers int    `json:"markers"`
	Steps   int    `json:"steps"`
	Gates   int    `json:"gates"`
}

func runList(_ *cobra.Command, _ []string) error {
	loader := stage.Builtin()

	var out []stageSummary

	for _, name := range loader.ListAvailable() {
		cfg, err := stage.LoadConfig(name)
		if err != nil {
			return err
		}

		out = append(out, stageSummary{
			Name:    cfg.Name,
			Title:   cfg.Title,
			Markers: len(cfg.Markers),
			Steps:   len(cfg.Steps),
			Gates:   len(cfg.Gates),
		})
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	for _, s := range out {
		fmt.Printf("%-20s %-24s %3d markers, %d steps, %d gates\n", s.Name, s.Title, s.Markers, s.Steps, s.Gates)
	}

	return nil
}
