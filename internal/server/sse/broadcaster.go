// Package sse serves AppEvents to stream clients as Server-Sent Events.
//
// Every event is written as an unnamed SSE event whose data is the event's
// JSON object, so browser EventSource onmessage handlers and the stream
// client both receive it:
//
//	id: 42
//	data: {"userId":"u1","eventType":"quiz.completed",...}
//
// Idle streams receive a comment line at the keepalive interval.
package sse

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/internal/server/filter"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/events"
)

// Broadcaster manages Server-Sent Events connections.
type Broadcaster struct {
	clients    map[*client]bool
	newClients chan *client
	closed     chan *client
	events     chan *events.Event
	done       chan struct{}
	mu         sync.RWMutex
	seq        uint64
	keepalive  time.Duration
	retry      time.Duration
	logger     *zerolog.Logger
}

type client struct {
	id     string
	filter filter.Filter
	send   chan frame
}

type frame struct {
	id   uint64
	data []byte
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithKeepalive sets the interval between keepalive comments. Zero disables them.
func WithKeepalive(d time.Duration) Option {
	return func(b *Broadcaster) { b.keepalive = d }
}

// WithRetry sets the reconnect delay advertised to clients.
func WithRetry(d time.Duration) Option {
	return func(b *Broadcaster) { b.retry = d }
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		clients:    make(map[*client]bool),
		newClients: make(chan *client, constants.RegisterBufferSize),
		closed:     make(chan *client, constants.RegisterBufferSize),
		events:     make(chan *events.Event, constants.ChannelBufferSize),
		done:       make(chan struct{}),
		keepalive:  constants.KeepaliveInterval,
		retry:      constants.ReconnectBaseDelay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run starts the broadcaster's main loop and blocks until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for c := range b.clients {
				close(c.send)
			}
			b.clients = make(map[*client]bool)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case c := <-b.newClients:
			b.mu.Lock()
			b.clients[c] = true
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().
				Str("client_id", c.id).
				Int("total_clients", n).
				Msg("SSE client connected")

		case c := <-b.closed:
			b.mu.Lock()
			if b.clients[c] {
				delete(b.clients, c)
				close(c.send)
			}
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().
				Str("client_id", c.id).
				Int("total_clients", n).
				Msg("SSE client disconnected")

		case e := <-b.events:
			b.seq++
			f := frame{id: b.seq, data: e.Raw()}
			b.mu.RLock()
			for c := range b.clients {
				if !c.filter.Match(e) {
					continue
				}
				select {
				case c.send <- f:
				default:
					b.logger.Warn().
						Str("client_id", c.id).
						Str("event_type", e.Type.String()).
						Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for every matching client.
func (b *Broadcaster) Broadcast(e *events.Event) {
	select {
	case b.events <- e:
	default:
		b.logger.Warn().
			Str("event_type", e.Type.String()).
			Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events to one client until it goes away or the
// broadcaster shuts down.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		filter: filter.Parse(r),
		send:   make(chan frame, constants.ChannelBufferSize),
	}

	select {
	case b.newClients <- c:
	case <-b.done:
		http.Error(w, "Stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case b.closed <- c:
		case <-b.done:
		}
	}()

	w.Header().Set("Content-Type", constants.EventStreamContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprintf(w, "retry: %d\n: connected %s\n\n", b.retry.Milliseconds(), c.id)
	flusher.Flush()

	var tick <-chan time.Time
	if b.keepalive > 0 {
		ticker := time.NewTicker(b.keepalive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return
			}
			if _, err := w.Write(encode(f)); err != nil {
				return
			}
			flusher.Flush()

		case <-tick:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// encode renders a frame, splitting multi-line data across data fields.
func encode(f frame) []byte {
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(f.id, 10))
	buf.WriteByte('\n')
	for _, line := range bytes.Split(bytes.ReplaceAll(f.data, []byte("\r\n"), []byte("\n")), []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
