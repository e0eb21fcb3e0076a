// Package log wraps log/slog with the error and request-id conventions used
// across memorymap. Records go to stderr so they never mix with command output.
package log

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/memorymap/internal/errors"
)

// Logger is a slog.Logger that remembers its Config.
type Logger struct {
	*slog.Logger
	config Config
}

// New builds a Logger from config.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	} else {
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	}

	logger := slog.New(handler)
	if config.ServiceName != "" {
		logger = logger.With("service", config.ServiceName)
	}
	if config.ServiceVersion != "" {
		logger = logger.With("version", config.ServiceVersion)
	}
	return &Logger{Logger: logger, config: config}
}

// Default logs warnings and errors as text to stderr.
func Default() *Logger {
	return New(DefaultConfig())
}

// Discard drops every record.
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: NewOutput(io.Discard)})
}

// Config returns the settings l was built with.
func (l *Logger) Config() Config {
	return l.config
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), config: l.config}
}

func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{Logger: l.Logger.WithGroup(name), config: l.config}
}

// Enabled reports whether records at level are written.
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.Logger.Enabled(ctx, level.slogLevel())
}

// WithError attaches err. Coded errors contribute their code, suggestions
// and cause as separate attributes.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorArgs(err)...)
}

// LogError records a failed operation at error level.
func (l *Logger) LogError(err error) {
	l.LogErrorContext(context.Background(), err)
}

// LogErrorContext is LogError with a context.
func (l *Logger) LogErrorContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l.WithContext(ctx).ErrorContext(ctx, "operation failed", errorArgs(err)...)
}

func errorArgs(err error) []any {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return []any{"error", err.Error()}
	}

	args := []any{"error", appErr.Message, "error_code", string(appErr.Code)}
	if len(appErr.Suggestions) > 0 {
		args = append(args, "suggestions", appErr.Suggestions)
	}
	if appErr.DocsURL != "" {
		args = append(args, "docs_url", appErr.DocsURL)
	}
	if appErr.Cause != nil {
		args = append(args, "cause", appErr.Cause.Error())
	}
	return args
}

type requestIDKey struct{}

// ContextWithRequestID stores the id of the backend request being made.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithContext adds the request id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
