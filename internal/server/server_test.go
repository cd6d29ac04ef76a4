package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/transport"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.Keepalive = 0
	return cfg
}

// startServer runs a server behind httptest and returns its base URL.
func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	srv, err := New(&application.Mock{}, cfg)
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return srv, ts.URL
}

// TestServerInitialization checks that New does not block on subscribing
// transports before the broker runs.
func TestServerInitialization(t *testing.T) {
	done := make(chan struct{})
	var (
		srv    *Server
		newErr error
	)
	go func() {
		srv, newErr = New(&application.Mock{}, testConfig())
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, newErr)
		require.NotNil(t, srv)
	case <-time.After(5 * time.Second):
		t.Fatal("New deadlocked")
	}

	srv.Start()
	require.Eventually(t, srv.Ready, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 70000
	_, err := New(&application.Mock{}, cfg)
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	cfg = testConfig()
	cfg.DemoEnabled = true
	cfg.DemoInterval = 0
	_, err = New(&application.Mock{}, cfg)
	assert.Error(t, err)
}

type received struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *received) add(e *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *received) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newStreamClient(url string) *stream.Client {
	logger := logging.NewNopLogger()
	return stream.NewClient(transport.ForURL(url, logger), stream.WithLogger(logger))
}

func TestEndToEnd(t *testing.T) {
	for _, tc := range []struct {
		name string
		path func(base string) string
	}{
		{"sse", func(base string) string { return base + constants.DefaultStreamPath }},
		{"websocket", func(base string) string {
			return "ws" + strings.TrimPrefix(base, "http") + constants.DefaultWebSocketPath
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, base := startServer(t, testConfig())

			client := newStreamClient(tc.path(base))
			defer client.Disconnect()

			var got received
			unsubscribe := client.AddEventListener("quiz.completed", got.add)
			defer unsubscribe()

			client.Connect(tc.path(base), "")
			require.Eventually(t, func() bool { return client.GetSnapshot().IsConnected }, 2*time.Second, time.Millisecond)
			require.Eventually(t, func() bool { return srv.StreamCount() == 1 }, 2*time.Second, time.Millisecond)

			publisher := transport.New(nil, "")
			progress := events.New("u1", events.QuizProgress, events.ProgressPayload{JobID: "j1", Step: "generating", Percentage: 50}, time.Time{})
			completed := events.New("u1", events.QuizCompleted, events.QuizCompletedPayload{
				CompletionPayload: events.CompletionPayload{ResourceID: "q1", ResourceType: "quiz"},
				QuizID:            "q1",
				QuestionCount:     10,
			}, time.UnixMilli(1700000000000))
			require.NoError(t, publisher.Publish(context.Background(), base, progress, ""))
			require.NoError(t, publisher.Publish(context.Background(), base, completed, ""))

			require.Eventually(t, func() bool { return len(got.types()) == 1 }, 2*time.Second, time.Millisecond)
			assert.Equal(t, []events.Type{events.QuizCompleted}, got.types())

			snap := client.GetSnapshot()
			require.NotNil(t, snap.LastEvent)
			assert.Equal(t, events.QuizCompleted, snap.LastEvent.Type)
			assert.Equal(t, int64(1700000000000), *snap.LastEvent.Timestamp)
		})
	}
}

func TestPublishRejectsInvalidEvent(t *testing.T) {
	_, base := startServer(t, testConfig())

	resp, err := http.Post(base+"/api/v1/events", "application/json", strings.NewReader(`{"eventType":"quiz.completed","userId":"u1"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	publisher := transport.New(nil, "")
	bad := events.New("u1", events.NotificationNew, events.NotificationPayload{NotificationID: "n1", Title: "t", Message: "m", Priority: "loud"}, time.Time{})
	err = publisher.Publish(context.Background(), base, bad, "")
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "priority")
}

func TestAuthenticatedStream(t *testing.T) {
	cfg := testConfig()
	cfg.AuthToken = "secret"
	srv, base := startServer(t, cfg)

	url := base + constants.DefaultStreamPath

	// A wrong credential is rejected and the client schedules a retry.
	clk := testingclock.NewFakeClock(time.Unix(0, 0))
	logger := logging.NewNopLogger()
	rejected := stream.NewClient(transport.ForURL(url, logger), stream.WithLogger(logger), stream.WithClock(clk))
	defer rejected.Disconnect()
	rejected.Connect(url, "wrong")
	require.Eventually(t, func() bool { return rejected.State() == stream.ReconnectPending }, 2*time.Second, time.Millisecond)
	assert.False(t, rejected.GetSnapshot().IsConnected)

	client := newStreamClient(url)
	defer client.Disconnect()
	client.Connect(url, "secret")
	require.Eventually(t, func() bool { return client.GetSnapshot().IsConnected }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return srv.StreamCount() == 1 }, 2*time.Second, time.Millisecond)

	health, err := http.Get(base + "/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	publish, err := http.Post(base+"/api/v1/events", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = publish.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, publish.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, err := New(&application.Mock{}, testConfig())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	client := newStreamClient(base + constants.DefaultStreamPath)
	defer client.Disconnect()
	client.Connect(base+constants.DefaultStreamPath, "")
	require.Eventually(t, func() bool { return client.GetSnapshot().IsConnected }, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.Eventually(t, func() bool { return !client.GetSnapshot().IsConnected }, 2*time.Second, time.Millisecond)
}

func TestDemoGeneratorStreams(t *testing.T) {
	cfg := testConfig()
	cfg.DemoEnabled = true
	cfg.DemoInterval = 20 * time.Millisecond
	_, base := startServer(t, cfg)

	client := newStreamClient(base + constants.DefaultStreamPath)
	defer client.Disconnect()

	var got received
	defer client.AddEventListener("notification.new", got.add)()
	client.Connect(base+constants.DefaultStreamPath+"?user=demo-user", "")

	require.Eventually(t, func() bool { return len(got.types()) > 0 }, 2*time.Second, 5*time.Millisecond)
}
