// Package logging builds the zerolog logger shared by every component.
//
// In MCP mode stdout carries the protocol stream, so logs always go to
// stderr and are forced to JSON.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/standardbeagle/conceptmap/internal/config"
)

// Options selects the logger's destination and shape
type Options struct {
	Level   string
	Format  string // console, json
	Output  io.Writer
	MCPMode bool
}

// FromConfig converts the log section of a config
func FromConfig(cfg config.Log) Options {
	return Options{Level: cfg.Level, Format: cfg.Format}
}

// New creates a logger. Unknown levels fall back to info; DEBUG=1 in the
// environment forces debug.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil || opts.MCPMode {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		level = zerolog.DebugLevel
	}

	if strings.EqualFold(opts.Format, "console") && !opts.MCPMode {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component derives a sub-logger tagged with the component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Nop returns a logger that discards everything
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
