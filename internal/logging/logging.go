// Package logging builds the zerolog loggers used by the socialblog binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// File returns a logger appending JSON lines to path. The TUI owns the
// terminal, so the client never logs to stdout or stderr. Close the returned
// closer on exit.
func File(path string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging.File: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging.File: open: %w", err)
	}
	return New(f, level), f, nil
}

// New returns a JSON logger writing to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Console returns a human readable logger for foreground servers.
func Console(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
