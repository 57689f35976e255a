package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog.Logger from cfg, grounded on
// universalClient/logger.Init: JSON to stdout in production, a
// human-readable console writer otherwise.
func NewLogger(cfg *Config) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if cfg.LogFormat != "json" {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(writer).
		Level(zerolog.Level(cfg.LogLevel)).
		With().
		Timestamp().
		Logger()
}
