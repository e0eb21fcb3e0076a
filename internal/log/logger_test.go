package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Format: format, Output: NewOutput(&buf)}), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestDefaultConfig(t *testing.T) {
	def := DefaultConfig()
	assert.Equal(t, LevelWarn, def.Level)
	assert.Equal(t, FormatText, def.Format)
	assert.Equal(t, os.Stderr, def.Output.Writer())
	assert.Equal(t, "memorymap", def.ServiceName)
}

func TestLookupLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"nonsense", LevelWarn, false},
		{"", LevelWarn, false},
	}
	for _, tt := range tests {
		got, ok := LookupLevel(tt.name)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
	}

	assert.Equal(t, LevelWarn, ParseLevel("nonsense"))
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(9).String())
	assert.Equal(t, []string{"debug", "info", "warn", "error"}, LevelNames())
}

func TestLookupFormat(t *testing.T) {
	f, ok := LookupFormat("console")
	assert.True(t, ok)
	assert.Equal(t, FormatText, f)

	f, ok = LookupFormat("JSON")
	assert.True(t, ok)
	assert.Equal(t, FormatJSON, f)

	_, ok = LookupFormat("xml")
	assert.False(t, ok)
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, "json", FormatJSON.String())
}

func TestServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: NewOutput(&buf), ServiceName: "memorymap", ServiceVersion: "1.2.3"})

	logger.Info("started")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "memorymap", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.True(t, logger.Enabled(context.Background(), LevelError))
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestWithErrorAppError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	err := fmt.Errorf("login: %w", errors.NewInvalidCredentialsError("No active account"))
	logger.WithError(err).Warn("login rejected")

	entry := decodeLine(t, buf)
	assert.Equal(t, "No active account", entry["error"])
	assert.Equal(t, "AUTH-001", entry["error_code"])
	assert.NotNil(t, entry["suggestions"])
}

func TestWithErrorPlainError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	logger.WithError(fmt.Errorf("boom")).Error("failed")
	assert.Equal(t, "boom", decodeLine(t, buf)["error"])

	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogErrorContext(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	cause := fmt.Errorf("disk full")
	logger.LogErrorContext(context.Background(), errors.Wrap(errors.ErrCodeStoreWriteFailed, "save session", cause))

	entry := decodeLine(t, buf)
	assert.Equal(t, "operation failed", entry["msg"])
	assert.Equal(t, "STORE-002", entry["error_code"])
	assert.Equal(t, "disk full", entry["cause"])

	buf.Reset()
	logger.LogError(nil)
	assert.Empty(t, buf.String())
}

func TestWithContextRequestID(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))

	logger.WithContext(ctx).Info("request sent")
	assert.Equal(t, "req-42", decodeLine(t, buf)["request_id"])

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestWithGroup(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	logger.WithGroup("http").Info("done", "status", 200)

	entry := decodeLine(t, buf)
	group, ok := entry["http"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 200, group["status"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	assert.False(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestDefaultLogger(t *testing.T) {
	original := defaultLogger.Load()
	defer defaultLogger.Store(original)

	defaultLogger.Store(nil)
	created := DefaultLogger()
	require.NotNil(t, created)
	assert.Same(t, created, DefaultLogger())
	assert.Equal(t, LevelWarn, created.Config().Level)

	custom, _ := newBufferLogger(LevelInfo, FormatText)
	SetDefaultLogger(custom)
	assert.Same(t, custom, DefaultLogger())
	assert.True(t, strings.EqualFold(custom.Config().Format.String(), "text"))
}
