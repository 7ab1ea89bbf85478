package statemachine

import (
	"context"

	"github.com/cosmicds/markerflow/marker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cosmicds/markerflow/statemachine"

// startTransitionSpan creates a span for one transition operation.
// Uses the global tracer provider initialized by the telemetry package.
// The caller is responsible for calling endTransitionSpan.
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan(ctx context.Context, op, stage string, from marker.Marker) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine."+op)
	span.SetAttributes(
		attribute.String("stage", sanitizeStage(stage)),
		attribute.String("from", from.Name()),
	)

	return ctx, span
}

func endTransitionSpan(span trace.Span, target marker.Marker, moved bool) {
	span.SetAttributes(
		attribute.String("target", target.Name()),
		attribute.Bool("moved", moved),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}
