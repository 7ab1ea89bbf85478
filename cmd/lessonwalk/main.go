// Command lessonwalk walks a guided lesson stage from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cosmicds/markerflow/cli"
	"github.com/cosmicds/markerflow/logger"
	"github.com/cosmicds/markerflow/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	subsystem       = "lessonwalk"
	shutdownTimeout = 5 * time.Second
)

// v holds flag values, MARKERFLOW_* environment variables and the optional
// config file, in that order of precedence.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "lessonwalk",
	Short: "Walk a guided lesson stage from the terminal",
	Long: `lessonwalk drives the marker state machine of a lesson stage.

Stages are loaded by name from the built-in set or from a YAML file path.

Examples:
  lessonwalk list                           # List built-in stages
  lessonwalk walk angular_size              # Walk a stage interactively
  lessonwalk walk ./my_stage.yaml -s s.json # Walk a file, persisting progress
  lessonwalk diagram professional_data      # Print a Mermaid diagram
  lessonwalk lint --strict ./my_stage.yaml  # Lint a stage file`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a lessonwalk config file")
	flags.Bool("json", false, "Log in JSON format")
	flags.String("log-level", "warn", "Minimum log level (debug, info, warn, error)")
	flags.String("environment", "local", "Deployment environment reported to OpenTelemetry")
	flags.Bool("plain", false, "Print the status card without a frame")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	v.SetEnvPrefix("MARKERFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(lintCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %q: %w", path, err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", v.GetString("log-level"), err)
	}

	opts := logger.Options{
		Subsystem: subsystem,
		JSON:      v.GetBool("json"),
		MinLevel:  level,
		Output:    os.Stderr,
	}

	logger.ConfigureLoggingWithOptions(opts)

	handler, err := telemetry.Initialize(cmd.Context(), telemetry.LoadConfigFromEnv(v.GetString("environment")))
	if err != nil {
		return err
	}

	if handler != nil {
		opts.Handlers = append(opts.Handlers, handler)
		logger.ConfigureLoggingWithOptions(opts)
	}

	cli.SetPlain(v.GetBool("plain"))

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if shutdownErr := telemetry.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("Failed to shut down telemetry", "error", shutdownErr)
	}

	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
