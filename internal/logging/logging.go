package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Leganyst/rollcall/internal/apperr"
)

type contextKey struct{}

// New собирает JSON-логгер с уровнем из конфигурации (debug|info|warn|error).
func New(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// ContextWithLogger кладёт логгер в контекст запроса.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext достаёт логгер из контекста; nil, если его нет.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}

// ForOperation возвращает логгер сервиса с атрибутами service/operation.
// Логгер из контекста имеет приоритет над base.
func ForOperation(ctx context.Context, base *slog.Logger, service, operation string, attrs ...any) *slog.Logger {
	logger := FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}
	pairs := append([]any{"service", service, "operation", operation}, attrs...)
	return logger.With(pairs...)
}

// Outcome пишет итог операции: debug при успехе, warn для доменных ошибок,
// error для непредвиденных.
func Outcome(ctx context.Context, logger *slog.Logger, err error, msg string) {
	if err == nil {
		logger.DebugContext(ctx, msg)
		return
	}
	kind := apperr.Kind(err)
	if kind == "unexpected" {
		logger.ErrorContext(ctx, msg, "error_kind", kind, "error", err)
		return
	}
	logger.WarnContext(ctx, msg, "error_kind", kind, "error", err)
}
