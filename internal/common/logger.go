package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string onto a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}

// Logger provides a centralized logging interface for sqlpatch
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a new structured text logger writing to stdout
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level, false)
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level, true)
}

// NewLoggerTo creates a logger writing to w. DSN-like attribute values are masked.
func NewLoggerTo(w io.Writer, level LogLevel, json bool) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.ToSlogLevel(),
		ReplaceAttr: maskAttr,
	}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// NewDiscardLogger returns a logger that drops every record.
func NewDiscardLogger() *Logger {
	return NewLoggerTo(io.Discard, LogLevelError, false)
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
	}
}

// WithModule returns a logger with migration module context
func (l *Logger) WithModule(moduleID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("module", moduleID),
		level:  l.level,
	}
}

// WithVersion returns a logger with version id context
func (l *Logger) WithVersion(versionID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("version", versionID),
		level:  l.level,
	}
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", storeType),
		level:  l.level,
	}
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}

// LogInfo logs informational message
func LogInfo(msg string, attrs ...any) {
	defaultLogger.Info(msg, attrs...)
}

// LogDebug logs debug message
func LogDebug(msg string, attrs ...any) {
	defaultLogger.Debug(msg, attrs...)
}

// LogWarn logs warning message
func LogWarn(msg string, attrs ...any) {
	defaultLogger.Warn(msg, attrs...)
}
