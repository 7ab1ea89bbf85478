package statemachine

import (
	"context"
	"log/slog"

	"github.com/cosmicds/markerflow/logger"
)

// Logger provides logging hooks for marker transitions.
type Logger interface {
	TransitionExecuted(ctx context.Context, stage string, change Change)
	GateDenied(ctx context.Context, stage string, from, target string)
	Recovered(ctx context.Context, stage string, requested, fallback, reason string)
}

// DefaultLogger implements Logger using slog. With no explicit logger it
// resolves one from the context on every call via logger.Get.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger that follows the context.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// NewSlogLogger creates a logger that always writes to l.
func NewSlogLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{
		logger: l,
	}
}

// get returns a logger carrying stage exactly once. Context loggers
// already carry the stage set by logger.WithStage.
func (l *DefaultLogger) get(ctx context.Context, stage string) *slog.Logger {
	if l.logger != nil {
		return l.logger.With("stage", stage)
	}

	if _, ok := logger.GetStage(ctx); ok {
		return logger.Get(ctx)
	}

	return logger.Get(ctx).With("stage", stage)
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, stage string, change Change) {
	l.get(ctx, stage).InfoContext(ctx, "Marker transition executed",
		"from", change.Old.Name(),
		"to", change.New.Name(),
		"direction", change.Direction.String(),
		"cause", change.Cause.String(),
	)
}

func (l *DefaultLogger) GateDenied(ctx context.Context, stage string, from, target string) {
	l.get(ctx, stage).DebugContext(ctx, "Forward move blocked by gate",
		"from", from,
		"target", target,
	)
}

func (l *DefaultLogger) Recovered(ctx context.Context, stage string, requested, fallback, reason string) {
	l.get(ctx, stage).WarnContext(ctx, "Unknown marker, recovering to first marker",
		"requested", requested,
		"fallback", fallback,
		"reason", reason,
	)
}
