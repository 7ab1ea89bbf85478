package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// setupTestTracer creates a test tracer with an in-memory exporter.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
		_ = tp.Shutdown(context.Background())
	})

	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any)
	for _, attr := range span.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	return attrs
}

// Cannot use t.Parallel() because setupTestTracer modifies the global tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestTransitionSpans(t *testing.T) {
	exporter := setupTestTracer(t)
	ctx := context.Background()

	m, _ := twoStepStage(t, WithStageName("spans"))

	require.True(t, m.MoveForward(ctx))
	require.False(t, m.MoveForward(ctx))
	require.True(t, m.MoveTo(ctx, m.Sequence().Last()))
	require.True(t, m.Restore(ctx, "a1"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 4)

	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{
		"statemachine.move_forward",
		"statemachine.move_forward",
		"statemachine.move_to",
		"statemachine.restore",
	}, names)

	first := spanAttrs(spans[0])
	assert.Equal(t, "spans", first["stage"])
	assert.Equal(t, "a1", first["from"])
	assert.Equal(t, "a2", first["target"])
	assert.Equal(t, true, first["moved"])

	denied := spanAttrs(spans[1])
	assert.Equal(t, "b1", denied["target"])
	assert.Equal(t, false, denied["moved"])
}

// Cannot use t.Parallel() because setupTestTracer modifies the global tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestListenerSeesTransitionSpan(t *testing.T) {
	_ = setupTestTracer(t)

	m, _ := twoStepStage(t)

	var valid bool

	m.Subscribe(ListenerFunc(func(ctx context.Context, _ Change) {
		valid = oteltrace.SpanFromContext(ctx).SpanContext().IsValid()
	}))

	require.True(t, m.MoveForward(context.Background()))
	assert.True(t, valid)
}
