package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "info"}).With("system", "detection")

	logger.Info("Detected subscription", "frequency", "monthly", "name", "Spotify Premium")

	line := buf.String()
	assert.Regexp(t, `^\[INFO\] \[detection\] \[\d{2}:\d{2}:\d{2}\] Detected subscription`, line)
	assert.Contains(t, line, " frequency=monthly")
	assert.Contains(t, line, ` name="Spotify Premium"`)
	assert.NotContains(t, line, "system=")
	assert.NotContains(t, line, "\033[", "no colors when not writing to a terminal")
}

func TestConsoleHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "warn"})

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestConsoleHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{})

	logger.WithGroup("request").With("method", "GET").Info("handled", "status", 200)
	logger.Info("nested", slog.Group("match", slog.Int("score", 85)))

	out := buf.String()
	assert.Contains(t, out, " request.method=GET")
	assert.Contains(t, out, " request.status=200")
	assert.Contains(t, out, " match.score=85")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Format: "json"})

	logger.Info("created", "linked_count", 6)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created", entry["msg"])
	assert.Equal(t, float64(6), entry["linked_count"])
}

func tracedContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTraceHandler_AddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Format: "json"})

	logger.InfoContext(tracedContext(t), "traced")
	logger.Info("untraced")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.NotContains(t, string(lines[1]), "trace_id")
}

func TestConsoleHandler_ShortTraceBracket(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{}).With("system", "api")

	logger.InfoContext(tracedContext(t), "request completed", "status", 200)

	line := buf.String()
	assert.Regexp(t, `^\[INFO\] \[api\] \[\d{2}:\d{2}:\d{2}\] \[trace 4bf92f35\] request completed status=200`, line)
	assert.NotContains(t, line, "span_id")
	assert.NotContains(t, line, "trace_id=")
}

func TestConsoleHandler_Values(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "debug"})

	logger.Debug("values", "took", 1500*time.Millisecond, "empty", "", "quote", `a"b`)
	logger.Log(context.Background(), slog.LevelWarn+2, "between levels")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, " took=1.5s")
	assert.Contains(t, out, ` empty=""`)
	assert.Contains(t, out, ` quote="a\"b"`)
	assert.Contains(t, out, "[WARN]")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
