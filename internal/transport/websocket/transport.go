// Package websocket implements the event stream transport over a WebSocket,
// one AppEvent per text frame.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

const name = "websocket"

// Transport opens WebSocket streams.
type Transport struct {
	dialer       *websocket.Dialer
	logger       *zerolog.Logger
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithKeepalive sets the ping interval and the time allowed for the next
// pong. interval must be shorter than timeout.
func WithKeepalive(interval, timeout time.Duration) Option {
	return func(t *Transport) {
		t.pingInterval = interval
		t.pongTimeout = timeout
	}
}

// New creates a WebSocket transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: constants.DialTimeout,
		},
		logger:       logging.Default(),
		pingInterval: constants.PingInterval,
		pongTimeout:  constants.PongTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open implements stream.Transport. The url must be absolute ws or wss.
func (t *Transport) Open(rawURL string, sink stream.Sink) (stream.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", errors.ErrInvalidURL, u.Scheme)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ctx: ctx, cancel: cancel}
	go t.run(c, u, sink)
	return c, nil
}

func (t *Transport) run(c *conn, u *url.URL, sink stream.Sink) {
	target := u.Redacted()

	ws, resp, err := t.dialer.DialContext(c.ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if c.ctx.Err() == nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			sink.Failed(errors.NewTransportError(name, target, status, err))
		}
		return
	}
	if !c.attach(ws) {
		_ = ws.Close()
		return
	}

	ws.SetReadLimit(constants.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(t.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(t.pongTimeout))
	})

	go c.pingLoop(t.pingInterval)
	sink.Opened()

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug().Err(err).Str("url", target).Msg("WebSocket read error")
			}
			c.cancel()
			_ = ws.Close()
			sink.Failed(errors.NewTransportError(name, target, 0, err))
			return
		}
		if kind != websocket.TextMessage || c.ctx.Err() != nil {
			continue
		}
		sink.Received(data)
	}
}

// conn is one WebSocket connection. Close may race with the dial, so the
// socket is attached under a lock.
type conn struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

func (c *conn) attach(ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.ws = ws
	return true
}

// pingLoop keeps the connection alive until it is closed.
func (c *conn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			ws := c.ws
			c.mu.Unlock()
			if ws == nil {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// Close implements stream.Conn.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	c.mu.Unlock()

	c.cancel()
	if ws == nil {
		return nil
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(constants.WriteTimeout))
	return ws.Close()
}
