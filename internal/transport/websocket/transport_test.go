package websocket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/internal/transport/websocket"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/logging"
)

type recorder struct {
	mu       sync.Mutex
	opened   int
	messages []string
	failures []error
}

func (r *recorder) Opened() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
}

func (r *recorder) Received(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, string(data))
}

func (r *recorder) Failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *recorder) state() (int, []string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, append([]string(nil), r.messages...), append([]error(nil), r.failures...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTransport() *websocket.Transport {
	return websocket.New(websocket.WithLogger(logging.NewNopLogger()))
}

func TestReceivesTextFrames(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = ws.Close() }()
		_ = ws.WriteMessage(gorilla.TextMessage, []byte(`{"n":1}`))
		_ = ws.WriteMessage(gorilla.BinaryMessage, []byte{0x1})
		_ = ws.WriteMessage(gorilla.TextMessage, []byte(`{"n":2}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	conn, err := newTransport().Open(wsURL(srv), rec)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool {
		_, _, failures := rec.state()
		return len(failures) == 1
	}, 2*time.Second, 5*time.Millisecond)

	opened, messages, failures := rec.state()
	assert.Equal(t, 1, opened)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, messages)
	assert.True(t, errors.IsTransport(failures[0]))
}

func TestHandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	rec := &recorder{}
	_, err := newTransport().Open(wsURL(srv), rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, _, failures := rec.state()
		return len(failures) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, _, failures := rec.state()
	assert.True(t, errors.IsUnauthorized(failures[0]))
}

func TestCloseIsQuiet(t *testing.T) {
	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = ws.Close() }()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	conn, err := newTransport().Open(wsURL(srv), rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		opened, _, _ := rec.state()
		return opened == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	assert.Never(t, func() bool {
		_, _, failures := rec.state()
		return len(failures) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestOpenRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"http://localhost/sse/stream", "/ws/stream"} {
		_, err := newTransport().Open(raw, &recorder{})
		assert.ErrorIs(t, err, errors.ErrInvalidURL, raw)
	}
}
