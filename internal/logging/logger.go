package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/fedreg/internal/config"
)

// NewLogger creates a structured zerolog.Logger writing to stdout, JSON by
// default or human readable when LOG_FORMAT is console.
func NewLogger(cfg *config.Config) zerolog.Logger {
	var w io.Writer = os.Stdout
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return New(w, cfg.ServiceName, cfg.LogLevel)
}

// New builds a logger on w tagged with service. Unknown levels fall back to
// info.
func New(w io.Writer, service, level string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return ctx.Logger().Level(lvl)
}
