package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// SlogLogger implementa ports.Logger usando slog do stdlib
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger cria um novo logger JSON em stdout
func NewSlogLogger(level string) ports.Logger {
	return NewSlogLoggerTo(os.Stdout, level)
}

// NewSlogLoggerTo cria um logger JSON escrevendo em w
func NewSlogLoggerTo(w io.Writer, level string) ports.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	handler := slog.NewJSONHandler(w, opts)
	return &SlogLogger{logger: slog.New(handler)}
}

// NewNopLogger descarta tudo; usado em testes
func NewNopLogger() ports.Logger {
	return &SlogLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel converte o nível textual; valores desconhecidos viram info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) With(args ...any) ports.Logger {
	return &SlogLogger{
		logger: l.logger.With(args...),
	}
}

func (l *SlogLogger) WithContext(ctx context.Context) ports.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

// ContextWithRequestID armazena o request id no contexto
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext recupera o request id, ou "" se ausente
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
