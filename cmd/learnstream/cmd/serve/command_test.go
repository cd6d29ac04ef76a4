package serve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/server"
)

func TestParseConfigKeepsDefaults(t *testing.T) {
	defaults := server.DefaultConfig()
	defaults.Port = 9090
	defaults.AuthToken = "from-config"

	cmd := NewCommand(&application.Mock{}, func() server.Config { return defaults })
	require.NoError(t, cmd.ParseFlags(nil))

	cfg := parseConfig(cmd, defaults)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-config", cfg.AuthToken)
	assert.False(t, cfg.DemoEnabled)
}

func TestParseConfigAppliesFlags(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, server.DefaultConfig)
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "3000",
		"--token", "secret",
		"--demo",
		"--demo-interval", "2s",
		"--cors-origins", "http://a.test,http://b.test",
		"--rate-limit", "0",
	}))

	cfg := parseConfig(cmd, server.DefaultConfig())
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.True(t, cfg.DemoEnabled)
	assert.Equal(t, 2*time.Second, cfg.DemoInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.RateLimit)
}

func TestServeStopsOnCancel(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, server.DefaultConfig)
	cmd.SetArgs([]string{"--port", "0", "--host", "127.0.0.1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, server.DefaultConfig)
	cmd.SetArgs([]string{"--port", "70000"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
