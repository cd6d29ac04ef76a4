// Package adapters connects the stream transports to the event broker.
package adapters

import (
	"sync/atomic"

	"github.com/agentstation/learnstream/internal/server/sse"
	ws "github.com/agentstation/learnstream/internal/server/websocket"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
)

type broadcaster interface {
	Broadcast(*events.Event)
}

// Transport forwards broker events to one transport's client set. The
// transport owns its clients; closing the adapter only stops forwarding.
type Transport struct {
	name   string
	out    broadcaster
	closed atomic.Bool
}

// NewSSESubscriber forwards to SSE stream clients.
func NewSSESubscriber(b *sse.Broadcaster) *Transport {
	return &Transport{name: "sse", out: b}
}

// NewWebSocketSubscriber forwards to WebSocket stream clients.
func NewWebSocketSubscriber(hub *ws.Hub) *Transport {
	return &Transport{name: "websocket", out: hub}
}

// Name is the transport name.
func (t *Transport) Name() string { return t.name }

// Send implements broker.Subscriber.
func (t *Transport) Send(e *events.Event) error {
	if t.closed.Load() {
		return errors.NewTransportError(t.name, "", 0, errors.New("subscriber closed"))
	}
	t.out.Broadcast(e)
	return nil
}

// Close implements broker.Subscriber. It is idempotent.
func (t *Transport) Close() error {
	t.closed.Store(true)
	return nil
}
