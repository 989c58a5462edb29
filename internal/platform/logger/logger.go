package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON on stdout unless format is "text".
func New(format string) *slog.Logger {
	return newWithWriter(os.Stdout, format)
}

func newWithWriter(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "apertura")
}

// Discard is the logger tests hand to services and handlers.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
