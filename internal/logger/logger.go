package logger

import (
	"log/slog"
	"os"
)

// New builds a text slog logger tagged with the component name.
func New(component string, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", component)
}
