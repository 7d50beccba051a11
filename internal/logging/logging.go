package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a structured logger writing JSON to stderr.
// If verbose == true, level = Debug, else Info.
// silent suppresses everything below Error so the console stays clean
// for table output and the progress bar.
func NewLogger(verbose, silent bool) *slog.Logger {
	level := new(slog.LevelVar)
	switch {
	case silent:
		level.Set(slog.LevelError)
	case verbose:
		level.Set(slog.LevelDebug)
	default:
		level.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// NewDiscardLogger returns a logger that drops everything. Used by tests
// and library callers that wire no logging.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
