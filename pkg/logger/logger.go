// Package logger adapts the process-wide slog logger for request-scoped
// structured logging in the HTTP layer. The rest of the application talks
// to *slog.Logger directly; this wrapper exists so handlers can attach
// typed fields without repeating slog boilerplate on every call site.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// Field is a typed key-value pair attached to a log record.
type Field = slog.Attr

// Field constructors used across the HTTP layer.
func String(key, value string) Field      { return slog.String(key, value) }
func Int(key string, value int) Field     { return slog.Int(key, value) }
func Int64(key string, value int64) Field { return slog.Int64(key, value) }
func Any(key string, value any) Field     { return slog.Any(key, value) }

// Err attaches an error under the conventional "error" key.
// A nil error yields a zero Attr, which slog handlers drop.
func Err(err error) Field {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// UserID tags a record with the acting user.
func UserID(id string) Field { return slog.String("user_id", id) }

// Logger wraps *slog.Logger with attr-first leveled methods.
type Logger struct {
	s *slog.Logger
}

// Wrap adopts an already-configured slog logger, so the HTTP layer
// shares the same handler, level and output as the rest of the process.
func Wrap(s *slog.Logger) *Logger {
	if s == nil {
		return Default()
	}
	return &Logger{s: s}
}

// Default builds a JSON logger on stdout at info level. Used as a
// fallback when no process logger was wired in.
func Default() *Logger {
	return &Logger{s: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))}
}

// With returns a logger that adds the given fields to every record.
func (l *Logger) With(fields ...Field) *Logger {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return &Logger{s: l.s.With(args...)}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *Logger) log(level slog.Level, msg string, fields []Field) {
	l.s.LogAttrs(context.Background(), level, msg, fields...)
}
