package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/constants"
)

// Config describes how a logger is built.
type Config struct {
	Level      string            // trace, debug, info, warn, error or off
	Format     string            // json, console or auto
	Output     string            // stderr, stdout, discard or a file path
	TimeFormat string            // console timestamp layout or a named layout
	NoColor    bool              // plain console output
	Caller     bool              // add file:line, implied at debug and below
	Fields     map[string]string // attached to every entry
}

// DefaultConfig is info level, auto format, written to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, LOG_TIME_FORMAT and
// LOG_FIELDS on top of DefaultConfig. DEBUG=1 stands in for LOG_LEVEL=debug.
func FromEnv() Config {
	cfg := DefaultConfig()
	switch {
	case os.Getenv("LOG_LEVEL") != "":
		cfg.Level = os.Getenv("LOG_LEVEL")
	case os.Getenv("DEBUG") != "":
		cfg.Level = "debug"
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LOG_TIME_FORMAT"); v != "" {
		cfg.TimeFormat = v
	}
	cfg.Fields = ParseFields(os.Getenv("LOG_FIELDS"))
	return cfg
}

// New builds a logger from cfg. It also lowers or raises zerolog's global
// level to match, since the global level gates every logger.
func New(cfg Config) zerolog.Logger {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out, terminal := openOutput(cfg.Output)
	var w io.Writer = out
	if useConsole(cfg.Format, terminal) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: timeLayout(cfg.TimeFormat),
			NoColor:    cfg.NoColor || !terminal,
		}
	}

	zc := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Caller || level <= zerolog.DebugLevel {
		zc = zc.Caller()
	}
	for k, v := range cfg.Fields {
		zc = zc.Str(k, v)
	}
	return zc.Logger()
}

var levelAliases = map[string]zerolog.Level{
	"":         zerolog.InfoLevel,
	"warning":  zerolog.WarnLevel,
	"none":     zerolog.Disabled,
	"off":      zerolog.Disabled,
	"disabled": zerolog.Disabled,
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := levelAliases[name]; ok {
		return l
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

var namedLayouts = map[string]string{
	"":            time.Kitchen,
	"kitchen":     time.Kitchen,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"stampmilli":  time.StampMilli,
	"timeonly":    time.TimeOnly,
}

// timeLayout accepts a named layout or anything that looks like a Go
// reference-time layout.
func timeLayout(name string) string {
	if layout, ok := namedLayouts[strings.ToLower(name)]; ok {
		return layout
	}
	if strings.Contains(name, "15:04") || strings.Contains(name, "2006") {
		return name
	}
	return time.Kitchen
}

// openOutput resolves an output name. A file that cannot be opened falls
// back to stderr.
func openOutput(name string) (io.Writer, bool) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, isTerminal(os.Stderr)
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout)
	case "discard", "none":
		return io.Discard, false
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr, isTerminal(os.Stderr)
	}
	return f, false
}

func useConsole(format string, terminal bool) bool {
	switch strings.ToLower(format) {
	case "console", "pretty", "text":
		return true
	case "", "auto":
		return terminal
	default:
		return false
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseFields parses "k=v,k2=v2" as used by LOG_FIELDS. Pairs without "="
// are skipped.
func ParseFields(s string) map[string]string {
	fields := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return fields
}
