// Package logging provides structured logging for the reflector, wrapping
// log/slog the way the rest of the pack's daemons do.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Format string // "json" or "text"; empty defaults to "text"
	Output io.Writer

	// Sync and NoColor are accepted for compatibility with callers that
	// configure write-through and color behavior; the slog-backed handlers
	// below are always synchronous and never emit color.
	Sync    bool
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger wraps slog.Logger with the level/format conventions used across
// the reflector's controller, workers, and CLI.
type Logger struct {
	slog  *slog.Logger
	level LogLevel
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// NewLogger creates a new logger from config.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return &Logger{slog: slog.New(handler), level: config.Level}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), level: l.level}
}

// WithWorker returns a logger tagged with the owning worker's queue id.
func (l *Logger) WithWorker(queueID int) *Logger {
	return l.with("worker_id", queueID)
}

// WithInterface returns a logger tagged with the bound network interface.
func (l *Logger) WithInterface(name string) *Logger {
	return l.with("interface", name)
}

// WithFrame returns a logger tagged with a frame sequence number and the
// pipeline stage ("classify", "rewrite", "send") that produced the message.
func (l *Logger) WithFrame(seq uint64, stage string) *Logger {
	return l.with("frame_seq", seq, "stage", stage)
}

// WithError returns a logger that attaches err to every subsequent message.
func (l *Logger) WithError(err error) *Logger {
	return l.with("error", err)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Printf-style logging.
func (l *Logger) Debugf(format string, args ...any) { l.slog.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.slog.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.slog.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.slog.Error(fmt.Sprintf(format, args...)) }

// Printf for compatibility with callers that don't want leveled logging.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

// Global convenience functions operating on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
