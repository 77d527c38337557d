// Package log provides the structured logging sink used by every pipeline stage.
//
// Stages never talk to a concrete backend. They receive a Logger (usually from
// a LoggerProvider) so that their behaviour can be verified with TestLogger and
// run in production against zerolog or log/slog.
//
// Example usage:
//
//	provider := log.NewZerologProvider(log.LevelInfo, os.Stderr)
//	logger := provider.GetLoggerWithName("cleaner")
//	logger.Info("Dropped columns with high missingness",
//	    log.OperationKey, "drop",
//	    log.FeaturesKey, 3,
//	)
package log

import (
	"context"
	"strings"

	houseerrors "github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. As a convenience, Error accepts an
// error value as the very first field; it is logged under ErrAttrKey.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	//
	// Example:
	//   logger.Info("Data loaded and cleaned",
	//       log.SamplesKey, 2930,
	//       log.FeaturesKey, 82,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("File not found", err, "path", path)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, houseerrors.NewValidationError("log_level", "unknown level", level)
	}
}

// ToLogLevel is ParseLevel for call sites that have already validated the level.
// It panics on an unknown level.
func ToLogLevel(level string) Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err.Error())
	}
	return l
}

// LoggerProvider defines an interface for creating and configuring loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}

// normalizeFields turns the "error first" convenience form into a regular
// key/value list.
func normalizeFields(fields []any) []any {
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			out := make([]any, 0, len(fields)+1)
			out = append(out, ErrAttrKey, err)
			return append(out, fields[1:]...)
		}
	}
	return fields
}
