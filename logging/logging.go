// Package logging настраивает структурированное логирование для всех обёрток.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once    sync.Once
	level   = new(slog.LevelVar)
	handler slog.Handler
)

func base() slog.Handler {
	once.Do(func() {
		if env := os.Getenv("FREEAI_LOG_LEVEL"); env != "" {
			level.Set(ParseLevel(env))
		}
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	})
	return handler
}

// New возвращает логгер компонента. Все логгеры пишут через один обработчик,
// поэтому сообщения не дублируются.
func New(name string) *slog.Logger {
	return slog.New(base()).With("component", name)
}

// SetLevel меняет уровень логирования для всех компонентов.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel разбирает строку уровня ("debug", "info", "warn", "error").
// Неизвестные значения дают info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
