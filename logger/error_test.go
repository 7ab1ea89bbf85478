//nolint:err113 // Test file uses errors.New() for creating test errors
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateError_NilError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, AnnotateError(nil, "key", "value"))
}

func TestAnnotateError_PreservesChain(t *testing.T) {
	t.Parallel()

	baseErr := errors.New("table reset failed")
	annotated := AnnotateError(baseErr, "effect", "reset_table", "to", "cho_row1")
	wrapped := fmt.Errorf("dispatch: %w", annotated)

	assert.Equal(t, "table reset failed", annotated.Error())
	require.ErrorIs(t, wrapped, baseErr)

	attrs := Attrs(wrapped)
	require.Len(t, attrs, 2)
	assert.Equal(t, "effect", attrs[0].Key)
	assert.Equal(t, "reset_table", attrs[0].Value.String())
	assert.Equal(t, "to", attrs[1].Key)
}

func TestAttrs_NestedAnnotations(t *testing.T) {
	t.Parallel()

	inner := AnnotateError(errors.New("boom"), "inner", 1)
	outer := AnnotateError(fmt.Errorf("wrap: %w", inner), "outer", 2)

	attrs := Attrs(outer)
	require.Len(t, attrs, 2)
	assert.Equal(t, "outer", attrs[0].Key)
	assert.Equal(t, "inner", attrs[1].Key)

	assert.Empty(t, Attrs(errors.New("plain")))
	assert.Empty(t, Attrs(nil))
}

func TestSlogErrorLogger_LiftsAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := &slogErrorLogger{inner: slog.NewJSONHandler(&buf, nil)}
	log := slog.New(handler)

	err := AnnotateError(errors.New("effect failed"), "effect", "recenter_tool")
	log.ErrorContext(context.Background(), "transition effect failed", "error", err, "stage", "s3")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "effect failed", rec["error"])
	assert.Equal(t, "recenter_tool", rec["effect"])
	assert.Equal(t, "s3", rec["stage"])
}

func TestSlogErrorLogger_KeepsPlainErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := slog.New(&slogErrorLogger{inner: slog.NewJSONHandler(&buf, nil)})
	log.With("component", "effects").WithGroup("g").Info("plain", "error", errors.New("plain error"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "effects", rec["component"])

	group, ok := rec["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "plain error", group["error"])
}
