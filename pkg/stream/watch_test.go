package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/stream"
)

func TestWatch(t *testing.T) {
	c, tr, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps := stream.Watch(ctx, c)

	first := <-snaps
	assert.False(t, first.IsConnected)

	c.Connect("/sse/stream", "")
	tr.last().sink.Opened()

	select {
	case snap := <-snaps:
		assert.True(t, snap.IsConnected)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after open")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-snaps:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestWatchKeepsLatest(t *testing.T) {
	c, tr, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps := stream.Watch(ctx, c)

	c.Connect("/sse/stream", "")
	tr.last().sink.Opened()
	tr.last().sink.Received([]byte(quizCompleted))

	snap := <-snaps
	assert.Same(t, c.GetSnapshot(), snap)
	select {
	case extra := <-snaps:
		t.Fatalf("unexpected buffered snapshot %+v", extra)
	default:
	}
}

func TestEventsFiltered(t *testing.T) {
	c, tr, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := stream.Events(ctx, c, "notification.new")

	c.Connect("/sse/stream", "")
	tr.last().sink.Received([]byte(quizCompleted))
	tr.last().sink.Received([]byte(notificationNew))

	e := <-ch
	assert.Equal(t, events.NotificationNew, e.Type)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}

	cancel()
	require.Eventually(t, func() bool { return c.ListenerTypes() == 0 }, time.Second, time.Millisecond)
}

func TestEventsUnfiltered(t *testing.T) {
	c, tr, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := stream.Events(ctx, c)

	c.Connect("/sse/stream", "")
	tr.last().sink.Opened()
	tr.last().sink.Received([]byte(quizCompleted))
	tr.last().sink.Received([]byte(notificationNew))
	c.Disconnect()

	assert.Equal(t, events.QuizCompleted, (<-ch).Type)
	assert.Equal(t, events.NotificationNew, (<-ch).Type)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}
}
