package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger writing to stdout.
func NewLogger(cfg *Config) *slog.Logger {
	format := ""
	if cfg != nil {
		format = cfg.LogFormat
	}
	return newLogger(os.Stdout, format)
}

// NewCLILogger returns a logger for command line tools. It writes to stderr
// so stdout stays free for command output.
func NewCLILogger(cfg *ClientConfig) *slog.Logger {
	format := ""
	if cfg != nil {
		format = cfg.LogFormat
	}
	return newLogger(os.Stderr, format)
}

func newLogger(w io.Writer, format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true}))
}
