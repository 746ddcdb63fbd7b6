// Package logging настраивает zerolog для бинарей сервиса.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New создаёт структурированный логгер с полями app и pid.
// level: debug, info, warn, error (по умолчанию info). pretty включает человекочитаемый вывод.
func New(app, level string, pretty bool) zerolog.Logger {
	return newWithWriter(os.Stdout, app, level, pretty)
}

func newWithWriter(w io.Writer, app, level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", app).
		Int("pid", os.Getpid()).
		Logger()
}

// ParseLevel переводит строковый уровень в zerolog.Level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
