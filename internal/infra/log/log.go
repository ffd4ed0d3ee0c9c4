package log

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/darshankharvi/Trading/internal/config"
)

type Logger = zerolog.Logger

func NewLogger(cfg config.Config) Logger {
	var l zerolog.Logger
	if cfg.Logging.Pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return l.Level(level)
}
