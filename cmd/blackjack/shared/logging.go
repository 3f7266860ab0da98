package shared

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// ParseLevel maps a config log level to charmbracelet/log, with debug
// forcing the most verbose level
func ParseLevel(level string, debug bool) (log.Level, error) {
	if debug {
		return log.DebugLevel, nil
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level %q: %w", level, err)
	}
	return parsed, nil
}

// SetupLogger configures a console logger on stderr
func SetupLogger(level log.Level) *log.Logger {
	return NewLogger(os.Stderr, level)
}

// NewLogger configures a timestamped logger writing to w
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}

// OpenLogFile truncates and opens the file the TUI logs to, so log output
// never draws over the table
func OpenLogFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return f, nil
}
