package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBuffer(t *testing.T, enabled bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown, err := Setup(context.Background(), Config{Enabled: enabled}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })
	return &buf
}

func TestStartSpan_RecordsDurationMetric(t *testing.T) {
	buf := setupBuffer(t, true)

	_, end := StartSpan(context.Background(), "pipeline", "fetch")
	end(nil)
	_, end = StartSpan(context.Background(), "pipeline", "fetch")
	end(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "obs span start")
	assert.Contains(t, out, "error=boom")

	snapshot := Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "pipeline.fetch.seconds,status=error", snapshot[0].Name)
	assert.Equal(t, "pipeline.fetch.seconds,status=ok", snapshot[1].Name)
	assert.EqualValues(t, 1, snapshot[1].Count)
}

func TestRecordMetric_Aggregates(t *testing.T) {
	setupBuffer(t, true)

	RecordMetric(context.Background(), "image.bytes", 10, nil)
	RecordMetric(context.Background(), "image.bytes", 30, nil)

	snapshot := Snapshot()
	require.Len(t, snapshot, 1)
	assert.EqualValues(t, 2, snapshot[0].Count)
	assert.InDelta(t, 40, snapshot[0].Sum, 1e-9)
	assert.InDelta(t, 30, snapshot[0].Last, 1e-9)
}

func TestDisabled_IsNoop(t *testing.T) {
	buf := setupBuffer(t, false)
	buf.Reset()

	_, end := StartSpan(context.Background(), "http", "GET /")
	end(nil)
	RecordMetric(context.Background(), "x", 1, nil)

	assert.False(t, Enabled())
	assert.Empty(t, buf.String())
	assert.Empty(t, Snapshot())
}

func TestShutdown_LogsSummaryAndResets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown, err := Setup(context.Background(), Config{Enabled: true}, logger)
	require.NoError(t, err)

	RecordMetric(context.Background(), "cat.image.bytes", 2048, nil)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "[OBSERVABILITY][SUMMARY] cat.image.bytes")
	assert.Contains(t, buf.String(), "count=1")
	assert.Empty(t, Snapshot())
	assert.False(t, Enabled())
}
