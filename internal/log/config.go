package log

import (
	"io"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// LookupFormat resolves "text" or "json". "console" is an alias for text.
func LookupFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text", "console":
		return FormatText, true
	case "json":
		return FormatJSON, true
	default:
		return FormatText, false
	}
}

// ParseFormat is LookupFormat falling back to FormatText.
func ParseFormat(name string) Format {
	f, _ := LookupFormat(name)
	return f
}

// Output is the destination of log records.
type Output struct {
	writer io.Writer
}

// Writer returns the destination, stderr when unset.
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

// NewOutput wraps w.
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// Config holds logger settings.
type Config struct {
	Level     Level
	Format    Format
	Output    Output
	AddSource bool

	// ServiceName and ServiceVersion are attached to every record when set.
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs warnings as text to stderr so command output stays clean.
func DefaultConfig() Config {
	return Config{
		Level:       LevelWarn,
		Format:      FormatText,
		ServiceName: "memorymap",
	}
}
