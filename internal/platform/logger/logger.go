package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Handlers and services receive it
// by injection so tests can pass slog.New(slog.DiscardHandler).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
