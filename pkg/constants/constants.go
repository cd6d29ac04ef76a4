// Package constants provides shared constants used throughout the learnstream codebase.
// This includes reconnect policy defaults, stream endpoints, timeouts and buffer
// sizes that should be consistent between the client, the transports and the
// development server.
package constants

import "time"

// Reconnect policy constants
const (
	// ReconnectBaseDelay is the delay before the first reconnect attempt
	ReconnectBaseDelay = 1 * time.Second

	// ReconnectMaxDelay caps the exponential reconnect delay
	ReconnectMaxDelay = 30 * time.Second

	// MaxReconnectAttempts is the number of consecutive failed attempts after
	// which the client stops retrying until the next explicit Connect
	MaxReconnectAttempts = 5
)

// Stream endpoint constants
const (
	// DefaultAPIOrigin is the API origin used when none is configured
	DefaultAPIOrigin = "http://localhost:8080"

	// DefaultStreamPath is the SSE stream path appended to the API origin
	DefaultStreamPath = "/sse/stream"

	// DefaultWebSocketPath is the WebSocket stream path served by the dev server
	DefaultWebSocketPath = "/ws/stream"

	// DefaultEventsPath is the path events are published to on the dev server
	DefaultEventsPath = "/api/v1/events"

	// TokenQueryParam is the query parameter carrying the bearer credential
	TokenQueryParam = "token"

	// EventStreamContentType is the media type of a server-sent event stream
	EventStreamContentType = "text/event-stream"
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for short HTTP requests
	DefaultHTTPTimeout = 10 * time.Second

	// DialTimeout is the timeout for establishing stream connections
	DialTimeout = 10 * time.Second

	// WriteTimeout is the time allowed to write a frame to a WebSocket peer
	WriteTimeout = 10 * time.Second

	// PongTimeout is the time allowed to read the next pong from a WebSocket peer
	PongTimeout = 60 * time.Second

	// PingInterval is how often WebSocket pings are sent (must be less than PongTimeout)
	PingInterval = (PongTimeout * 9) / 10

	// ShutdownTimeout bounds graceful shutdown of the dev server
	ShutdownTimeout = 5 * time.Second

	// DemoInterval is the default interval between demo event sequences
	DemoInterval = 5 * time.Second

	// KeepaliveInterval is how often the dev server writes an SSE comment to
	// idle streams so proxies keep them open
	KeepaliveInterval = 15 * time.Second

	// IdempotencyTTL is how long the dev server remembers Idempotency-Key values
	IdempotencyTTL = 10 * time.Minute
)

// Server defaults
const (
	// DefaultHost is the interface the dev server binds to
	DefaultHost = "localhost"

	// DefaultPort is the dev server port
	DefaultPort = 8080

	// DefaultRateLimit is the publish requests per minute allowed per client IP
	DefaultRateLimit = 120
)

// Limit constants define various limits and capacities
const (
	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 256

	// RegisterBufferSize is the buffer for subscriber registration channels
	RegisterBufferSize = 10

	// MaxMessageSize is the largest single stream message accepted (1 MiB)
	MaxMessageSize = 1 << 20

	// MaxPublishBodySize is the largest event body the dev server accepts
	MaxPublishBodySize = 64 * 1024
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for credential files (rw-------)
	SecureFilePermissions = 0600
)
