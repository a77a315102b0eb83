// Package logging provides the leveled log sink used across the pipeline.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Level is the kind of a pipeline log line
type Level string

const (
	Loading Level = "loading"
	Done    Level = "done"
	Warning Level = "warning"
	Error   Level = "error"
)

// Sink receives pipeline log lines
type Sink interface {
	Log(message string, level Level)
}

// Logger writes pipeline log lines through charmbracelet/log
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a Logger writing to w. An empty levelName keeps info.
func NewLogger(w io.Writer, levelName string) *Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "phone-scraper",
	})

	if levelName != "" {
		if lvl, err := log.ParseLevel(levelName); err == nil {
			logger.SetLevel(lvl)
		} else {
			logger.Warn("unknown log level, keeping info", "level", levelName)
		}
	}

	return &Logger{logger: logger}
}

// Log implements Sink
func (l *Logger) Log(message string, level Level) {
	switch level {
	case Warning:
		l.logger.Warn(message)
	case Error:
		l.logger.Error(message)
	default:
		l.logger.Info(message, "status", string(level))
	}
}

// Debug logs details that are not part of the pipeline output
func (l *Logger) Debug(message string, keyvals ...interface{}) {
	l.logger.Debug(message, keyvals...)
}

// SetDefault routes the package-level charmbracelet/log functions, used by the
// storage and browser packages, through this logger.
func (l *Logger) SetDefault() {
	log.SetDefault(l.logger)
}
