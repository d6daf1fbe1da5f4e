package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. format "json" selects the JSON handler,
// anything else the text handler.
func New(level slog.Level, format string, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
