package parsersdk

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is a log severity, ordered from most to least severe. A threshold of
// LevelInfo lets Error, Warn and Info messages through.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ParseLevel converts a level name to a Level. Accepts the names produced by
// String plus "warning" and "err".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelError, fmt.Errorf("invalid log level: %q", s)
	}
}

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Allows reports whether a message at level msg passes a threshold of l.
func (l Level) Allows(msg Level) bool {
	return msg <= l
}

// Slog maps the level onto slog's scale. Trace has no slog counterpart and maps
// below Debug.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelDebug - 4
	}
}

// LevelFromSlog maps a slog level onto the plugin scale.
func LevelFromSlog(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	case l >= slog.LevelDebug:
		return LevelDebug
	default:
		return LevelTrace
	}
}
