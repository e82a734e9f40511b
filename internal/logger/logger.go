package logger

import (
	"io"
	"os"
	"time"

	"github.com/kehao95/line-sim/internal/config"
	"github.com/rs/zerolog"
)

// New builds the diagnostics logger. Diagnostics always go to stderr so the
// simulator's report on stdout stays clean.
func New(cfg config.LoggingConfig) zerolog.Logger {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var level zerolog.Level
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}
