package handlers

import (
	"net/http"

	"github.com/agentstation/learnstream/internal/server/response"
)

// HandleSSE serves the event stream at /sse/stream.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	serveStream(h.SSE, w, r)
}

// HandleWebSocket serves the event stream at /ws/stream.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	serveStream(h.WebSocket, w, r)
}

func serveStream(s Stream, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	s.ServeHTTP(w, r)
}
