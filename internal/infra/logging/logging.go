package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupJSON sets slog's default logger to use JSON output at the given level.
// Every record carries the service name.
func SetupJSON(level slog.Level, service string) {
	slog.SetDefault(NewJSON(os.Stdout, level, service))
}

func NewJSON(w io.Writer, level slog.Level, service string) *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	).With(slog.String("service", service))
}
