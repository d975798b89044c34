package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iamalbertly/jira-reporting/internal/config"
)

// New builds the process logger and installs it as the global one.
func New(cfg config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.AppEnv == "dev" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
		logger = zerolog.New(w).With().Timestamp().Str("app", "jira-reporting").Logger()
	}
	log.Logger = logger
	return logger
}
