package demo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/logging"
)

type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) Publish(e *events.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEmitProducesValidFlow(t *testing.T) {
	rec := &recorder{}
	clk := testingclock.NewFakeClock(time.UnixMilli(1700000000000))
	g := New(rec, "u1", clk, logging.NewNopLogger())

	flow := g.Emit()
	require.Len(t, flow, 5)

	want := []events.Type{events.QuizProgress, events.QuizProgress, events.QuizProgress, events.QuizCompleted, events.NotificationNew}
	for i, e := range flow {
		assert.Equal(t, want[i], e.Type)
		assert.Equal(t, "u1", e.UserID)
		assert.Equal(t, int64(1700000000000), *e.Timestamp)

		// Every emitted event must survive the wire.
		decoded, err := events.Decode(e.Raw())
		require.NoError(t, err, "event %d", i)
		assert.Equal(t, e.Type, decoded.Type)
	}

	completed := flow[3].Payload.(events.QuizCompletedPayload)
	assert.Equal(t, completed.QuizID, completed.ResourceID)
}

func TestRunEmitsPerTick(t *testing.T) {
	rec := &recorder{}
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	g := New(rec, "u1", clk, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, time.Second)
		close(done)
	}()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(time.Second)
	require.Eventually(t, func() bool { return rec.count() == 5 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
