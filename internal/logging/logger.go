package logging

import (
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// New returns a timestamped logger writing to w at the named level.
// Unknown level names fall back to info.
func New(w io.Writer, level string) *clog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(level),
	})
}

// ParseLevel maps debug, info, warn and error to charm log levels.
func ParseLevel(level string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

// Discard is a logger that drops everything; handy in tests.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}
