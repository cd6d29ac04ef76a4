// Package broker fans published AppEvents out to every stream transport the
// development server exposes.
//
// Publish only enqueues. Run drains the queue and hands each event to all
// subscribers at once through a conc wait group, so a slow, failing or
// panicking subscriber never holds back or takes down the others.
package broker

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/events"
)

// Subscriber consumes events from the broker.
type Subscriber interface {
	// Send delivers an event. Implementations must not block for long.
	Send(*events.Event) error

	// Close releases the subscriber.
	Close() error
}

// Stats counts what the broker has seen since it was created.
type Stats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

// Broker queues events and distributes them to subscribers.
type Broker struct {
	queue  chan *events.Event
	logger *zerolog.Logger

	mu   sync.RWMutex
	subs []Subscriber

	published, delivered, dropped, failed atomic.Uint64
}

// New returns a broker with a queue of constants.ChannelBufferSize events.
func New(logger *zerolog.Logger) *Broker {
	return &Broker{
		queue:  make(chan *events.Event, constants.ChannelBufferSize),
		logger: logger,
	}
}

// Subscribe adds sub. It takes effect for the next event dequeued.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	n := len(b.subs)
	b.mu.Unlock()
	b.logger.Debug().Int("subscribers", n).Msg("Subscriber added")
}

// Unsubscribe removes and closes sub. Unknown subscribers are ignored.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	i := slices.Index(b.subs, sub)
	if i >= 0 {
		b.subs = slices.Delete(b.subs, i, i+1)
	}
	b.mu.Unlock()
	if i >= 0 {
		_ = sub.Close()
		b.logger.Debug().Msg("Subscriber removed")
	}
}

// SubscriberCount is the number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Stats returns a snapshot of the counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Failed:    b.failed.Load(),
	}
}

// Publish enqueues e without blocking. It reports false, and drops e,
// when the queue is full.
func (b *Broker) Publish(e *events.Event) bool {
	select {
	case b.queue <- e:
		b.published.Add(1)
		return true
	default:
		b.dropped.Add(1)
		b.logger.Warn().Str("event_type", e.Type.String()).Msg("Event queue full, event dropped")
		return false
	}
}

// Run delivers queued events until ctx is done, then closes every
// subscriber. Events still queued at that point are discarded.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case e := <-b.queue:
			b.deliver(e)
		case <-ctx.Done():
			b.mu.Lock()
			subs := b.subs
			b.subs = nil
			b.mu.Unlock()
			for _, sub := range subs {
				_ = sub.Close()
			}
			b.logger.Info().Msg("Event broker stopped")
			return
		}
	}
}

func (b *Broker) deliver(e *events.Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	log := b.logger.With().Str("event_type", e.Type.String()).Logger()

	var wg conc.WaitGroup
	for _, sub := range subs {
		wg.Go(func() {
			if err := sub.Send(e); err != nil {
				b.failed.Add(1)
				log.Warn().Err(err).Msg("Subscriber failed")
				return
			}
			b.delivered.Add(1)
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		b.failed.Add(1)
		log.Error().Err(r.AsError()).Msg("Subscriber panicked")
	}
	log.Debug().Int("subscribers", len(subs)).Msg("Event delivered")
}
