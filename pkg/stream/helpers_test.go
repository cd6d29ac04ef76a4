package stream_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

// fakeTransport records every Open and lets the test drive each connection.
type fakeTransport struct {
	mu      sync.Mutex
	conns   []*fakeConn
	openErr error
}

type fakeConn struct {
	url    string
	sink   stream.Sink
	closed atomic.Bool
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (t *fakeTransport) Open(url string, sink stream.Sink) (stream.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		t.conns = append(t.conns, &fakeConn{url: url, sink: sink})
		return nil, t.openErr
	}
	conn := &fakeConn{url: url, sink: sink}
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *fakeTransport) last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[i]
}

// recordingClock is a fake clock that remembers every scheduled delay.
type recordingClock struct {
	*testingclock.FakeClock
	mu     sync.Mutex
	delays []time.Duration
}

func newRecordingClock() *recordingClock {
	return &recordingClock{FakeClock: testingclock.NewFakeClock(time.Unix(0, 0))}
}

func (c *recordingClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	return c.FakeClock.AfterFunc(d, f)
}

func (c *recordingClock) scheduled() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

// counter counts invocations from any goroutine.
type counter struct{ n atomic.Int64 }

func (c *counter) inc()       { c.n.Add(1) }
func (c *counter) get() int64 { return c.n.Load() }

func newTestClient(t *testing.T, opts ...stream.Option) (*stream.Client, *fakeTransport, *recordingClock) {
	t.Helper()
	tr := &fakeTransport{}
	clk := newRecordingClock()
	opts = append([]stream.Option{
		stream.WithClock(clk),
		stream.WithLogger(logging.NewNopLogger()),
	}, opts...)
	return stream.NewClient(tr, opts...), tr, clk
}

// waitOpens waits for the transport to have been opened n times.
func waitOpens(t *testing.T, tr *fakeTransport, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return tr.opens() == n },
		time.Second, time.Millisecond, fmt.Sprintf("expected %d opens", n))
}

const quizCompleted = `{"eventType":"quiz.completed","userId":"u1","resourceId":"q1","resourceType":"quiz","quizId":"q1","questionCount":10}`

const notificationNew = `{"eventType":"notification.new","userId":"u1","notificationId":"n1","title":"Ready","message":"Your quiz is ready","priority":"normal"}`
