// Package log configures the process-wide logrus logger. Logs go to a
// file, never to stdout, since the TUI owns the terminal.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/config"
	"github.com/tessro/earshot/internal/filesystem"
)

var logger = newDiscard()

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Setup configures output, format and level from cfg. With level "off"
// or no resolvable log directory everything is discarded.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	if cfg.Level == "off" {
		logger = newDiscard()
		return nopCloser{}, nil
	}

	path := cfg.File
	if path == "" {
		dir := Dir()
		if dir == "" {
			return nopCloser{}, nil
		}
		path = filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(f)
	if cfg.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	logger = l
	return f, nil
}

// Use replaces the process logger. Tests use it to capture output.
func Use(l *logrus.Logger) {
	logger = l
}

// For returns a logger tagged with a component name.
func For(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// Dir returns the default log directory.
func Dir() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, "earshot", "logs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "earshot", "logs")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
