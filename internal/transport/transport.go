package transport

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/internal/transport/sse"
	"github.com/agentstation/learnstream/internal/transport/websocket"
	"github.com/agentstation/learnstream/pkg/stream"
)

// ForURL returns the stream transport for rawURL: WebSocket for ws and wss,
// server-sent events for everything else.
func ForURL(rawURL string, logger *zerolog.Logger) stream.Transport {
	if u, err := url.Parse(rawURL); err == nil && (u.Scheme == "ws" || u.Scheme == "wss") {
		return websocket.New(websocket.WithLogger(logger))
	}
	return sse.New(sse.WithLogger(logger))
}
