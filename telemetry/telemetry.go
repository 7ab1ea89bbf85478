// Package telemetry exports traces and logs over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cosmicds/markerflow/logger"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	instrumentationName   = "github.com/cosmicds/markerflow"
)

var (
	mu             sync.Mutex
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// TracesEndpoint and LogsEndpoint are full OTLP/HTTP URLs. An empty
	// endpoint disables that signal.
	TracesEndpoint string
	LogsEndpoint   string
	Enabled        bool
	Timeout        time.Duration
}

// LoadConfigFromEnv loads the configuration from the standard OTEL_*
// environment variables.
func LoadConfigFromEnv(environment string) *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", logger.GetSubsystem(context.Background()))
	v.SetDefault("OTEL_SERVICE_VERSION", defaultServiceVersion)
	v.SetDefault("OTEL_EXPORTER_OTLP_TIMEOUT", defaultTimeout)

	return &Config{
		ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
		ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
		Environment:    environment,
		TracesEndpoint: v.GetString("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		LogsEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"),
		Enabled:        v.GetBool("OTEL_ENABLED"),
		Timeout:        v.GetDuration("OTEL_EXPORTER_OTLP_TIMEOUT"),
	}
}

// Initialize sets up trace export and installs the global tracer provider.
// It returns a slog handler that exports log records, or nil when log
// export is not configured; pass it to logger.Options.Handlers.
func Initialize(ctx context.Context, config *Config) (slog.Handler, error) {
	if config == nil || !config.Enabled {
		slog.Info("OpenTelemetry export is disabled")

		return nil, nil //nolint:nilnil // disabled is not an error
	}

	if config.TracesEndpoint == "" && config.LogsEndpoint == "" {
		slog.Warn("OpenTelemetry endpoints not configured, export will be disabled")

		return nil, nil //nolint:nilnil // disabled is not an error
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if config.TracesEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(config.TracesEndpoint),
			otlptracehttp.WithTimeout(timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)

		otel.SetTracerProvider(tracerProvider)

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	var handler slog.Handler

	if config.LogsEndpoint != "" {
		exporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.LogsEndpoint),
			otlploghttp.WithTimeout(timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}

		loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
			sdklog.WithResource(res),
		)

		handler = otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(loggerProvider))
	}

	slog.Info("OpenTelemetry export initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"traces_endpoint", config.TracesEndpoint,
		"logs_endpoint", config.LogsEndpoint,
	)

	return handler, nil
}

// Shutdown flushes and stops the providers created by Initialize.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	var errs []error

	if tracerProvider != nil {
		slog.Info("Shutting down OpenTelemetry tracer provider")

		errs = append(errs, tracerProvider.Shutdown(ctx))
		tracerProvider = nil
	}

	if loggerProvider != nil {
		errs = append(errs, loggerProvider.Shutdown(ctx))
		loggerProvider = nil
	}

	return errors.Join(errs...)
}
