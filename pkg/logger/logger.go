package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger used across the service. BusinessError is
// for expected domain failures (wrong join key, not admin) and logs at warn;
// InternalError is for failures that need operator attention and logs at error.
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	BusinessError(message string, err error, args ...any)
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv builds a logger from LOG_LEVEL, LOG_FORMAT and ENV.
// Development defaults to debug/text, everything else to info/json.
func NewFromEnv() Logger {
	env := normalize(os.Getenv("ENV"))
	return New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL"), env), parseFormat(os.Getenv("LOG_FORMAT"), env))
}

func New(output io.Writer, level slog.Level, format string) Logger {
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(output, options)
	default:
		handler = slog.NewJSONHandler(output, options)
	}

	return &slogLogger{base: slog.New(handler)}
}

func (l *slogLogger) Debug(message string, args ...any) { l.base.Debug(message, args...) }
func (l *slogLogger) Info(message string, args ...any)  { l.base.Info(message, args...) }
func (l *slogLogger) Warn(message string, args ...any)  { l.base.Warn(message, args...) }
func (l *slogLogger) Error(message string, args ...any) { l.base.Error(message, args...) }

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Warn(message, append([]any{"err", err}, args...)...)
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Error(message, append([]any{"err", err}, args...)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

func parseLevel(value, env string) slog.Level {
	switch normalize(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		if env == "development" {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}
}

func parseFormat(value, env string) string {
	switch normalize(value) {
	case "json", "text":
		return normalize(value)
	default:
		if env == "development" {
			return "text"
		}
		return "json"
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
