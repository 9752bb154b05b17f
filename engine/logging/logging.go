// Package logging owns the process-wide logrus logger used by every component that is not
// handed its own logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	log     *logrus.Logger
	logFile *os.File
)

// Init configures the shared logger. A log file opened by an earlier call is closed.
//
// Parameters:
//   - level: a logrus level name; unknown names fall back to info
//   - path: optional file to append to, created with its directory if missing
//   - console: true to also write to stderr
//
// Returns:
//   - error: error if the log file cannot be opened
func Init(level, path string, console bool) error {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	mu.Lock()
	prev := logFile
	log, logFile = l, file
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Get returns the shared logger, creating a default one (info level, stderr) on first use.
func Get() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = logrus.New()
	}
	return log
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
