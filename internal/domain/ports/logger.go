package ports

import "context"

// Logger define a interface para logging
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
	// WithContext anexa campos de correlação (request_id) presentes no contexto
	WithContext(ctx context.Context) Logger
}
