package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if c.Logging.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
