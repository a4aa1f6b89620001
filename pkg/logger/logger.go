// Package logger constructs the structured logger shared by all pipeline
// commands.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger tagged with the service name. Unknown or empty
// levels fall back to info.
func New(service, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Level(ParseLevel(level))
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(trimmed); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}
