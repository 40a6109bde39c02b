// Package logging builds the structured logger shared by the CLI and the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level. Unknown levels fall
// back to info.
func New(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "punchcard",
	})
	logger.SetLevel(ParseLevel(level))
	return logger
}

func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// OpenFile opens (creating directories as needed) an append-only log file.
// The TUI owns the terminal, so it logs here instead of stderr.
func OpenFile(path, level string) (*log.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return Discard(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level), f, nil
}

func Stderr(level string) *log.Logger {
	return New(os.Stderr, level)
}

func Discard() *log.Logger {
	return New(io.Discard, "error")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
