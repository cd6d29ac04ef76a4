package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/logging"
)

// NewLogger builds the CLI logger. The level comes from, in order:
// --log-level, -v/-q (-q wins when both are set), LOG_LEVEL, then info.
func NewLogger(config *Config) zerolog.Logger {
	return newLogger(config, os.Stderr)
}

func newLogger(config *Config, warnings io.Writer) zerolog.Logger {
	level, warning := resolveLevel(config)
	if warning != "" {
		_, _ = fmt.Fprintln(warnings, "Warning: "+warning)
	}
	return logging.New(logging.Config{
		Level:  level.String(),
		Format: config.LogFormat,
		Output: config.LogOutput,
		Caller: level <= zerolog.DebugLevel,
	})
}

// resolveLevel returns the effective level and a warning for the user when
// the flags were contradictory or unusable.
func resolveLevel(config *Config) (zerolog.Level, string) {
	if config.LogLevel != "" {
		if l, ok := knownLevel(config.LogLevel); ok {
			return l, ""
		}
		return zerolog.InfoLevel, fmt.Sprintf("invalid log level %q, using info", config.LogLevel)
	}
	switch {
	case config.Verbose && config.Quiet:
		return zerolog.WarnLevel, "both --verbose and --quiet specified, using --quiet"
	case config.Quiet:
		return zerolog.WarnLevel, ""
	case config.Verbose:
		return zerolog.DebugLevel, ""
	}
	if l, ok := knownLevel(config.EnvLogLevel); ok {
		return l, ""
	}
	return zerolog.InfoLevel, ""
}

func knownLevel(name string) (zerolog.Level, bool) {
	switch name {
	case "trace", "debug", "info", "warn", "error":
		return logging.ParseLevel(name), true
	}
	return zerolog.InfoLevel, false
}
