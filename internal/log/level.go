package log

import (
	"log/slog"
	"slices"
	"strings"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = []string{"debug", "info", "warn", "error"}

// LevelNames lists the names accepted for log.level, most verbose first.
func LevelNames() []string {
	return slices.Clone(levelNames)
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LookupLevel resolves a level name from a config file or flag.
// Case is ignored and "warning" is accepted for warn.
func LookupLevel(name string) (Level, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	i := slices.Index(levelNames, name)
	if i < 0 {
		return LevelWarn, false
	}
	return Level(i), true
}

// ParseLevel is LookupLevel falling back to LevelWarn, the CLI default.
func ParseLevel(name string) Level {
	l, _ := LookupLevel(name)
	return l
}
