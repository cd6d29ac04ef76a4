// Package logging configures zerolog for learnstream.
//
// The process-wide logger is built from the LOG_* environment variables at
// start-up and can be replaced with Configure or SetDefault. Packages that
// accept a logger option fall back to Default when none is given:
//
//	logger := logging.Component("stream")
//	logger.Info().Str("url", streamURL).Msg("Connecting to event stream")
//
// Request and event scoped loggers travel through a context.Context, see
// WithLogger and FromContext.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = New(FromEnv())

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's own
// global logger so third-party zerolog users agree with it.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Configure builds a logger from cfg and installs it as the default.
func Configure(cfg Config) *zerolog.Logger {
	SetDefault(New(cfg))
	return Default()
}

// Component returns a child of the default logger carrying a component field.
func Component(name string) *zerolog.Logger {
	child := defaultLogger.With().Str("component", name).Logger()
	return &child
}
