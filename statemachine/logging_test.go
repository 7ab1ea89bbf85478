package statemachine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cosmicds/markerflow/logger"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))

		out = append(out, rec)
	}

	return out
}

func TestDefaultLoggerRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	m, _ := twoStepStage(t, WithLogger(l), WithStageName("logging"), WithInitial("nope"))

	m.MoveForward(context.Background())
	m.MoveForward(context.Background())

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "nope", lines[0]["requested"])
	assert.Equal(t, "a1", lines[0]["fallback"])
	assert.Equal(t, reasonInitial, lines[0]["reason"])

	assert.Equal(t, "INFO", lines[1]["level"])
	assert.Equal(t, "a2", lines[1]["to"])
	assert.Equal(t, "forward", lines[1]["direction"])
	assert.Equal(t, "advance", lines[1]["cause"])

	assert.Equal(t, "DEBUG", lines[2]["level"])
	assert.Equal(t, "b1", lines[2]["target"])
	assert.Equal(t, "logging", lines[2]["stage"])
}

func TestSlogtLogger(t *testing.T) {
	t.Parallel()

	m, _ := twoStepStage(t, WithLogger(NewSlogLogger(slogt.New(t))))

	assert.True(t, m.MoveForward(context.Background()))
}

func TestContextLoggerCarriesStageOnce(t *testing.T) { //nolint:paralleltest // modifies the default slog logger
	var buf bytes.Buffer

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	m, _ := twoStepStage(t, WithStageName("two_step"))

	require.True(t, m.MoveForward(logger.WithStage(context.Background(), "two_step")))
	require.False(t, m.MoveForward(context.Background()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"stage":`), line)
		assert.Contains(t, line, `"stage":"two_step"`)
		assert.NotContains(t, line, `"subsystem":""`)
	}
}
