package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: WARN — CLI не должен шуметь поверх вывода команд.
func LogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "text" (по умолчанию) — человекочитаемый формат
//   - "json" — JSON формат для сбора логов CI
//
// verbose принудительно включает DEBUG.
func SetupLogger(w io.Writer, verbose bool) *slog.Logger {
	var handler slog.Handler

	level := LogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithExecutionID возвращает логгер с добавленным execution_id.
func WithExecutionID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("execution_id", id)
}

// WithProject возвращает логгер с добавленными project и integration.
func WithProject(logger *slog.Logger, project, integration string) *slog.Logger {
	return logger.With("project", project, "integration", integration)
}
