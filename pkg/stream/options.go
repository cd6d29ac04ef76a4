package stream

import (
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to logging.Default().
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used to schedule reconnects.
func WithClock(clk clock.WithDelayedExecution) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithMaxAttempts sets how many consecutive failed attempts are retried
// before the client gives up until the next Connect.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first reconnect attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMaxDelay caps the reconnect delay.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}
