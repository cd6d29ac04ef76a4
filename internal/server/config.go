package server

import (
	"fmt"
	"time"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings. Empty allows every origin.
	CORSOrigins []string

	// Authentication. Empty disables it.
	AuthToken  string
	AuthHeader string

	// Publish settings
	RateLimit      int // Publish requests per minute per IP (0 to disable)
	IdempotencyTTL time.Duration

	// Stream settings
	Keepalive time.Duration

	// Demo event generator
	DemoEnabled  bool
	DemoInterval time.Duration
	DemoUserID   string

	// HTTP timeouts. Streams are long-lived, so there is no write timeout.
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           constants.DefaultHost,
		Port:           constants.DefaultPort,
		PathPrefix:     "/api/v1",
		AuthHeader:     "X-API-Key",
		RateLimit:      constants.DefaultRateLimit,
		IdempotencyTTL: constants.IdempotencyTTL,
		Keepalive:      constants.KeepaliveInterval,
		DemoInterval:   constants.DemoInterval,
		DemoUserID:     "demo-user",
		ReadTimeout:    10 * time.Second,
		IdleTimeout:    120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfigError("server", fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if c.RateLimit < 0 {
		return errors.NewConfigError("server", "rate limit must not be negative", nil)
	}
	if c.DemoEnabled && c.DemoInterval <= 0 {
		return errors.NewConfigError("server", "demo interval must be positive", nil)
	}
	if c.DemoEnabled && c.DemoUserID == "" {
		return errors.NewConfigError("server", "demo user id is required", nil)
	}
	return nil
}
