// Package websocket serves AppEvents to stream clients over WebSockets, one
// event JSON object per text frame.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/internal/server/filter"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/events"
)

// maxInboundSize bounds frames read from peers, which only send control frames.
const maxInboundSize = 512

// Hub maintains active WebSocket connections and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *events.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

// NewHub creates a new WebSocket hub. checkOrigin may be nil to accept
// every origin.
func NewHub(logger *zerolog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *events.Event, constants.ChannelBufferSize),
		register:   make(chan *Client, constants.RegisterBufferSize),
		unregister: make(chan *Client, constants.RegisterBufferSize),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			h.logger.Info().Msg("WebSocket hub shut down")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", c.id).
				Int("total_clients", n).
				Msg("WebSocket client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().
				Str("client_id", c.id).
				Int("total_clients", n).
				Msg("WebSocket client disconnected")

		case e := <-h.broadcast:
			data := e.Raw()
			h.mu.Lock()
			for c := range h.clients {
				if !c.filter.Match(e) {
					continue
				}
				select {
				case c.send <- data:
				default:
					// Slow consumer; drop it.
					close(c.send)
					delete(h.clients, c)
					h.logger.Warn().Str("client_id", c.id).Msg("WebSocket client buffer full, disconnecting")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every matching client.
func (h *Hub) Broadcast(e *events.Event) {
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warn().
			Str("event_type", e.Type.String()).
			Msg("Broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events to the new client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &Client{
		id:     uuid.NewString(),
		filter: filter.Parse(r),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, constants.ChannelBufferSize),
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(constants.WriteTimeout))
		_ = conn.Close()
		return
	}

	go c.WritePump()
	go c.ReadPump()
}

// Client is one WebSocket connection.
type Client struct {
	id     string
	filter filter.Filter
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
}

// ReadPump reads control frames until the peer goes away, then unregisters
// the client.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(constants.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.PongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}
	}
}

// WritePump writes queued events and pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(constants.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
