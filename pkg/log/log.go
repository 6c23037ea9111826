// Package log configures the process-wide slog default. Components pull
// their logger through WithModule so every line carries a module attr.
package log

import (
	"log/slog"
	"os"
	"strings"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup installs the default logger. format selects the handler: "json"
// for machine-readable output, anything else means text. Unknown levels
// fall back to info.
func Setup(logLevel, format string) {
	level, ok := levels[strings.ToLower(logLevel)]
	if !ok {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// WithModule returns the default logger tagged with the module name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
