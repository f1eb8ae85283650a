package shared

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var logger = log.Logger.Level(zerolog.InfoLevel).With().Str("component", "dict").Logger()

// Logger returns the logger used by the dictionary packages.
func Logger() *zerolog.Logger {
	return &logger
}

// SetLogger replaces the package logger. It is meant to be called during
// program initialization, before any dictionary is in use.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// SetLogLevel sets the level of the package logger by name.
func SetLogLevel(name string) error {
	var level zerolog.Level
	switch strings.ToUpper(name) {
	case "TRACE":
		level = zerolog.TraceLevel
	case "DEBUG":
		level = zerolog.DebugLevel
	case "INFO", "":
		level = zerolog.InfoLevel
	case "WARN":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	case "FATAL":
		level = zerolog.FatalLevel
	case "PANIC":
		level = zerolog.PanicLevel
	case "DISABLED":
		level = zerolog.Disabled
	default:
		return fmt.Errorf("log level %q: %w", name, ErrOutOfRange)
	}
	logger = logger.Level(level)
	return nil
}
