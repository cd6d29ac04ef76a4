package stream

import (
	"context"
	"sync"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/events"
)

// Watch returns a channel carrying the current snapshot followed by every
// later one. The channel keeps only the latest snapshot, so a slow reader
// skips intermediate states. It is closed when ctx ends.
func Watch(ctx context.Context, s Store) <-chan *Snapshot {
	ch := make(chan *Snapshot, 1)
	var (
		mu     sync.Mutex
		closed bool
	)

	push := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		snap := s.GetSnapshot()
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}

	push()
	unsubscribe := s.SubscribeToStore(push)

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

// Events returns a channel of the events received by c. With types, only
// events of those types are delivered through listeners; without, every
// decoded event is delivered. Senders block while the buffer is full, which
// holds up the transport's reader. The channel is closed when ctx ends.
func Events(ctx context.Context, c *Client, types ...string) <-chan *events.Event {
	ch := make(chan *events.Event, constants.ChannelBufferSize)
	var (
		mu     sync.Mutex
		closed bool
	)

	send := func(e *events.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	}

	var unsubscribers []func()
	if len(types) > 0 {
		for _, t := range types {
			unsubscribers = append(unsubscribers, c.AddEventListener(t, send))
		}
	} else {
		var lastMu sync.Mutex
		last := c.GetSnapshot().LastEvent
		unsubscribers = append(unsubscribers, c.SubscribeToStore(func() {
			e := c.GetSnapshot().LastEvent
			lastMu.Lock()
			changed := e != nil && e != last
			last = e
			lastMu.Unlock()
			if changed {
				send(e)
			}
		}))
	}

	go func() {
		<-ctx.Done()
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}
