package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/learnstream/internal/server/broker"
	"github.com/agentstation/learnstream/internal/server/response"
)

// Health is the body of a health response.
type Health struct {
	Status           string       `json:"status"`
	Service          string       `json:"service"`
	Version          string       `json:"version"`
	Uptime           string       `json:"uptime"`
	SSEClients       int          `json:"sse_clients"`
	WebSocketClients int          `json:"websocket_clients"`
	Subscribers      int          `json:"subscribers"`
	IdempotencyKeys  int          `json:"idempotency_keys"`
	Events           broker.Stats `json:"events"`
}

// HandleHealth answers GET and HEAD on the health paths.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	response.OK(w, Health{
		Status:           "healthy",
		Service:          "learnstream",
		Version:          h.App.Version(),
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		SSEClients:       h.SSE.ClientCount(),
		WebSocketClients: h.WebSocket.ClientCount(),
		Subscribers:      h.Publisher.SubscriberCount(),
		IdempotencyKeys:  h.Idempotency.ItemCount(),
		Events:           h.Publisher.Stats(),
	})
}
