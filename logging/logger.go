// Package logging provides pre-configured logrus loggers for summ components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific
// component. It uses a singleton pattern per component to avoid
// re-initializing.
//
// The log level comes from SUMM_LOG_LEVEL (default "info"), the format from
// SUMM_LOG_FORMAT ("text" or "json"). Logs always go to a date-stamped file
// under the directory named by SUMM_LOG_DIR (if set), and additionally to
// stderr when stderr is not an interactive terminal (e.g. under systemd) or
// when debug level is active.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	levelStr := "info"
	if env := os.Getenv("SUMM_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv("SUMM_LOG_CALLER") == "true" {
		logger.SetReportCaller(true)
	}

	switch os.Getenv("SUMM_LOG_FORMAT") {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	var writers []io.Writer

	if logDir := os.Getenv("SUMM_LOG_DIR"); logDir != "" {
		dateStr := time.Now().Format("2006-01-02")
		logFilePath := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", component, dateStr))
		if err := os.MkdirAll(logDir, 0755); err == nil {
			file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				writers = append(writers, file)
			}
		}
	}

	// Structured logs go to stderr when piped or running under a service
	// manager; interactive terminals stay quiet unless debugging.
	isDebug := logger.GetLevel() >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if isDebug || !isInteractive {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}
