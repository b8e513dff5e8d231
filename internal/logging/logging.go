// Package logging builds the zerolog loggers used across agi.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogFileName is the file the interactive UI logs to inside the data directory
const LogFileName = "agi.log"

// ParseLevel converts a level name to a zerolog level. Unknown names map to info.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// New returns a timestamped logger writing JSON lines to w
func New(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger, used by one-shot commands on stderr
func NewConsole(level string, out io.Writer) zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: true}
	return New(level, w)
}

// OpenFile opens (append mode) the log file inside dir and returns a logger on it.
// The returned closer must be called on shutdown.
func OpenFile(level, dir string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return New(level, f), f, nil
}
