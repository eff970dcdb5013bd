package telemetry

import (
	"log/slog"
	"os"
)

// LogLevel читает уровень логирования из LOG_LEVEL
// (DEBUG, INFO, WARN, ERROR). По умолчанию INFO.
func LogLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// LOG_FORMAT="text" включает человекочитаемый вывод для
// разработки; по умолчанию JSON. На уровне DEBUG к записям
// добавляется источник (файл:строка).
func SetupLogger() *slog.Logger {
	level := LogLevel()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithRunID возвращает логгер с добавленным run_id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithStepID возвращает логгер с добавленным step_id.
func WithStepID(logger *slog.Logger, stepID string) *slog.Logger {
	return logger.With("step_id", stepID)
}
