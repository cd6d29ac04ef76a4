package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/pkg/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := logging.DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.Caller)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("LOG_TIME_FORMAT", "rfc3339")
	t.Setenv("LOG_FIELDS", "service=learnstream")

	cfg := logging.FromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, "rfc3339", cfg.TimeFormat)
	assert.Equal(t, map[string]string{"service": "learnstream"}, cfg.Fields)

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", logging.FromEnv().Level)
}

func TestNewWritesFile(t *testing.T) {
	keepDefault(t)

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stream.log")
		logger := logging.New(logging.Config{
			Level:  "warn",
			Format: "json",
			Output: path,
			Fields: map[string]string{"service": "learnstream"},
		})
		logger.Info().Msg("event received")
		logger.Warn().Str("event_type", "quiz.failed").Msg("event failed")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		out := string(content)
		assert.NotContains(t, out, "event received")
		assert.Contains(t, out, `"message":"event failed"`)
		assert.Contains(t, out, `"service":"learnstream"`)
		assert.Contains(t, out, `"event_type":"quiz.failed"`)
	})

	t.Run("console", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stream.log")
		logger := logging.New(logging.Config{Level: "info", Format: "console", Output: path})
		logger.Info().Msg("console test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "INF")
		assert.Contains(t, string(content), "console test")
		assert.NotContains(t, string(content), "\x1b[")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"loud":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestParseFields(t *testing.T) {
	assert.Empty(t, logging.ParseFields(""))
	assert.Equal(t,
		map[string]string{"env": "dev", "region": "eu"},
		logging.ParseFields("env=dev, region = eu,broken"),
	)
}

func TestNewTimeLayout(t *testing.T) {
	keepDefault(t)

	path := filepath.Join(t.TempDir(), "stream.log")
	logger := logging.New(logging.Config{Format: "console", Output: path, TimeFormat: "2006-01-02"})
	logger.Info().Msg("dated")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), time.Now().Format("2006-01-02"))
}
