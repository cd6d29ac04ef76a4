// Package stream implements the client side of the learning platform's
// real-time event stream.
//
// A Client keeps at most one transport connection open, decodes every message
// into an events.Event, hands it to the listeners registered for its type and
// publishes an immutable Snapshot of the connection to store subscribers.
// When the connection breaks the client retries with exponential backoff and
// gives up after a bounded number of consecutive failures.
//
// Nothing in the public API returns an error or panics: transport and decode
// failures are logged and surface only as Snapshot.IsConnected and the
// absence of new events.
package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/logging"
)

// State is the connection state of a Client.
type State int

// Connection states.
const (
	Disconnected State = iota
	Connecting
	Connected
	ReconnectPending
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ReconnectPending:
		return "reconnect_pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Client is the event stream client. Create one per application with
// NewClient and share it; all methods are safe for concurrent use.
//
// Store subscribers and event listeners run synchronously, after the
// client's lock is released, on the goroutine that caused the transition.
// They may call back into the client.
type Client struct {
	transport   Transport
	clock       clock.WithDelayedExecution
	logger      *zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	mu       sync.Mutex
	state    State
	url      string // target url with credential; empty when not connecting
	attempts int    // consecutive failed attempts since the last success
	gen      uint64 // bumped whenever the current connection is superseded
	conn     Conn
	timer    clock.Timer
	store    *store
	registry *registry
}

// NewClient creates a disconnected client that opens connections with t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport:   t,
		clock:       clock.RealClock{},
		logger:      logging.Default(),
		maxAttempts: constants.MaxReconnectAttempts,
		baseDelay:   constants.ReconnectBaseDelay,
		maxDelay:    constants.ReconnectMaxDelay,
		store:       newStore(),
		registry:    newRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the stream at url. A non-empty credential is appended as the
// token query parameter unless the url already has one. Connecting again to
// the same url with the same credential while connected or connecting does
// nothing; anything else replaces the current connection and resets the
// attempt counter.
func (c *Client) Connect(url, credential string) {
	target := WithCredential(url, credential)

	c.mu.Lock()
	if target == c.url && (c.state == Connected || c.state == Connecting) {
		c.mu.Unlock()
		return
	}
	old, notify := c.teardownLocked()
	c.url = target
	c.attempts = 0
	gen := c.beginLocked()
	c.mu.Unlock()

	c.closeConn(old)
	if notify != nil {
		notify()
	}
	c.logger.Info().Str("url", redact(target)).Msg("Connecting to event stream")
	c.open(gen, target)
}

// Disconnect closes the stream and cancels any pending reconnect. It is safe
// to call repeatedly and on a client that never connected. Store subscribers
// are notified every time.
func (c *Client) Disconnect() {
	c.mu.Lock()
	wasActive := c.state != Disconnected
	old, _ := c.teardownLocked()
	c.url = ""
	c.attempts = 0
	subs := c.store.subscribers()
	c.mu.Unlock()

	c.closeConn(old)
	if wasActive {
		c.logger.Info().Msg("Disconnected from event stream")
	}
	runSubscribers(subs)
}

// GetSnapshot returns the current snapshot. The same pointer is returned
// until the connection flag or the last event changes.
func (c *Client) GetSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.current
}

// SubscribeToStore registers callback to run after every snapshot-affecting
// transition: open, message, error and disconnect. The returned func removes
// the registration and may be called any number of times.
func (c *Client) SubscribeToStore(callback func()) func() {
	c.mu.Lock()
	id := c.store.subscribe(callback)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.store.unsubscribe(id)
			c.mu.Unlock()
		})
	}
}

// AddEventListener registers handler for events of eventType. The returned
// func removes exactly this registration and may be called any number of
// times.
func (c *Client) AddEventListener(eventType string, handler Handler) func() {
	c.mu.Lock()
	id := c.registry.add(eventType, handler)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.registry.remove(eventType, id)
			c.mu.Unlock()
		})
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// URL returns the target url including the credential, or "" when the
// client is not trying to connect.
func (c *Client) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Attempts returns the number of consecutive failed connection attempts.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// ListenerTypes returns how many event types currently have listeners.
func (c *Client) ListenerTypes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.types()
}

// teardownLocked supersedes the current connection and pending retry. It
// returns the connection to close and, when the snapshot flipped to
// disconnected, the notification to run once unlocked.
func (c *Client) teardownLocked() (Conn, func()) {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	old := c.conn
	c.conn = nil
	c.state = Disconnected

	if !c.store.set(false, c.store.current.LastEvent) {
		return old, nil
	}
	subs := c.store.subscribers()
	return old, func() { runSubscribers(subs) }
}

// beginLocked starts a connection attempt against c.url and returns its
// generation.
func (c *Client) beginLocked() uint64 {
	c.gen++
	c.state = Connecting
	return c.gen
}

// open asks the transport for a connection of generation gen. It must be
// called without the lock held since transports may report synchronously.
func (c *Client) open(gen uint64, url string) {
	conn, err := c.transport.Open(url, &sink{client: c, gen: gen})
	if err != nil {
		c.failed(gen, errors.NewTransportError("stream", redact(url), 0, err))
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.closeConn(conn)
		return
	}
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) opened(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = Connected
	c.attempts = 0
	c.store.set(true, c.store.current.LastEvent)
	subs := c.store.subscribers()
	url := c.url
	c.mu.Unlock()

	c.logger.Info().Str("url", redact(url)).Msg("Event stream connected")
	runSubscribers(subs)
}

func (c *Client) received(gen uint64, data []byte) {
	e, err := events.Decode(data)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Dropping undecodable stream message")
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.store.set(c.store.current.IsConnected, e)
	subs := c.store.subscribers()
	handlers := c.registry.lookup(string(e.Type))
	c.mu.Unlock()

	runSubscribers(subs)
	for _, h := range handlers {
		c.dispatch(h, e)
	}
}

// dispatch runs one listener, recovering a panic so sibling listeners and
// the connection are unaffected.
func (c *Client) dispatch(h Handler, e *events.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("event_type", string(e.Type)).
				Interface("panic", r).
				Msg("Event listener panicked")
		}
	}()
	h(e)
}

func (c *Client) failed(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	old := c.conn
	c.conn = nil
	c.store.set(false, c.store.current.LastEvent)
	subs := c.store.subscribers()

	var delay time.Duration
	retry := c.url != "" && c.attempts < c.maxAttempts
	if retry {
		delay = Backoff(c.attempts, c.baseDelay, c.maxDelay)
		c.attempts++
		c.state = ReconnectPending
		next := c.gen
		c.timer = c.clock.AfterFunc(delay, func() { c.retry(next) })
	} else {
		c.state = Disconnected
	}
	attempts := c.attempts
	c.mu.Unlock()

	c.closeConn(old)
	if retry {
		c.logger.Warn().
			Err(cause).
			Int("attempt", attempts).
			Dur("delay", delay).
			Msg("Event stream failed, reconnect scheduled")
	} else {
		c.logger.Error().
			Err(cause).
			Int("attempt", attempts).
			Msg("Event stream failed, giving up")
	}
	runSubscribers(subs)
}

// retry fires after a backoff delay. It reopens the stored url directly,
// keeping the attempt counter.
func (c *Client) retry(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != ReconnectPending {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	url := c.url
	next := c.beginLocked()
	attempts := c.attempts
	c.mu.Unlock()

	c.logger.Info().Int("attempt", attempts).Msg("Reconnecting to event stream")
	c.open(next, url)
}

func (c *Client) closeConn(conn Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Closing stream connection")
	}
}

func runSubscribers(subs []func()) {
	for _, cb := range subs {
		cb()
	}
}

// sink binds transport signals to the connection generation they belong to.
type sink struct {
	client *Client
	gen    uint64
}

func (s *sink) Opened()              { s.client.opened(s.gen) }
func (s *sink) Received(data []byte) { s.client.received(s.gen, data) }
func (s *sink) Failed(err error)     { s.client.failed(s.gen, err) }
