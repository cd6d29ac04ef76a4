// Package handlers holds the HTTP handlers of the development server.
package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/server/broker"
	"github.com/agentstation/learnstream/internal/server/cache"
	"github.com/agentstation/learnstream/pkg/events"
)

// Publisher queues events for every stream client.
type Publisher interface {
	Publish(*events.Event) bool
	SubscriberCount() int
	Stats() broker.Stats
}

// Stream is a transport endpoint that keeps its own client set.
type Stream interface {
	http.Handler
	ClientCount() int
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	App         application.Application
	Idempotency *cache.Cache
	Publisher   Publisher
	SSE         Stream
	WebSocket   Stream
	Logger      *zerolog.Logger
}

// Handlers serves health, publish and the two stream endpoints.
type Handlers struct {
	Deps
	logger  *zerolog.Logger
	started time.Time
}

// New returns handlers over deps. A nil logger discards.
func New(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handlers{Deps: deps, logger: logger, started: time.Now()}
}
