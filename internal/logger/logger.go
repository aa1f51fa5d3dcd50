// Package logger configures the global zerolog logger used by the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Setup configures the global logger to write to stderr
func Setup(level, format string) {
	log.Logger = New(os.Stderr, level, format)
}

// New builds a logger writing to w. An unknown level falls back to info
// and an unknown format to JSON.
func New(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, FormatConsole) || strings.EqualFold(format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
