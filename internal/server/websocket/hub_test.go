package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/logging"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logging.NewNopLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	e, err := events.Decode(data)
	require.NoError(t, err)
	return e
}

func notification(user string) *events.Event {
	return events.New(user, events.NotificationNew, events.NotificationPayload{
		NotificationID: "n1",
		Title:          "Ready",
		Message:        "Your quiz is ready",
		Priority:       events.PriorityHigh,
	}, time.UnixMilli(1700000000000))
}

func TestHubBroadcast(t *testing.T) {
	hub, srv, _ := startHub(t)

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast(notification("u1"))

	e := readEvent(t, conn)
	assert.Equal(t, events.NotificationNew, e.Type)
	assert.Equal(t, int64(1700000000000), *e.Timestamp)
	p, ok := e.Payload.(events.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, events.PriorityHigh, p.Priority)
}

func TestHubFilters(t *testing.T) {
	hub, srv, _ := startHub(t)

	conn := dial(t, srv, "?user=u2")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast(notification("u1"))
	hub.Broadcast(notification("u2"))

	assert.Equal(t, "u2", readEvent(t, conn).UserID)
}

func TestHubClientDisconnect(t *testing.T) {
	hub, srv, _ := startHub(t)

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, srv, stop := startHub(t)

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, time.Millisecond)

	stop()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure),
		"expected close frame, got %v", err)
}
