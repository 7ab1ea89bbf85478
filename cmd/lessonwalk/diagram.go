package main

import (
	"fmt"

	"github.com/cosmicds/markerflow/visualizer"
	"github.com/spf13/cobra"
)

var (
	diagramCurrent   string
	diagramTheme     string
	diagramDirection string
	diagramNoSteps   bool
	diagramNoGates   bool
)

var diagramCmd = &cobra.Command{
	Use:   "diagram <stage|path>",
	Short: "Print a Mermaid state diagram of a stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

func init() {
	diagramCmd.Flags().StringVar(&diagramCurrent, "current", "", "Highlight this marker as current")
	diagramCmd.Flags().StringVar(&diagramTheme, "theme", "default", "Color scheme (default, dark)")
	diagramCmd.Flags().StringVar(&diagramDirection, "direction", "LR", "Diagram flow (LR, TB)")
	diagramCmd.Flags().BoolVar(&diagramNoSteps, "no-steps", false, "Do not label step markers")
	diagramCmd.Flags().BoolVar(&diagramNoGates, "no-gates", false, "Do not label gated edges")
}

func runDiagram(_ *cobra.Command, args []string) error {
	opts := visualizer.DefaultOptions().
		WithCurrent(diagramCurrent).
		WithTheme(diagramTheme).
		WithDirection(diagramDirection).
		WithShowSteps(!diagramNoSteps).
		WithShowGates(!diagramNoGates)

	out, err := visualizer.GenerateMermaidFromFile(args[0], opts)
	if err != nil {
		return err
	}

	fmt.Print(out)

	return nil
}
