package logger

import (
	"fmt"
	"log/slog"
	"time"
)

// Error returns the "error" attribute, or an empty one for a nil error so
// that callers can pass it unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID returns the "request_id" attribute, empty for an empty id.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// SessionAction records the lifecycle action applied by a finalize step.
func SessionAction(action fmt.Stringer) slog.Attr {
	return slog.String("session_action", action.String())
}

func Store(name string) slog.Attr {
	return slog.String("store", name)
}

func Dialect(name string) slog.Attr {
	return slog.String("dialect", name)
}

// Removed is the number of records a sweep deleted.
func Removed(n int64) slog.Attr {
	return slog.Int64("removed", n)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
