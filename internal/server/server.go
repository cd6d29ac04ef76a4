// Package server provides the learnstream development server: it streams
// AppEvents to clients over Server-Sent Events and WebSockets and accepts
// new events over HTTP.
//
// Usage:
//
//	cfg := server.DefaultConfig()
//	cfg.DemoEnabled = true
//
//	srv, err := server.New(app, cfg)
//	if err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx)
//
// Routes:
//
//	GET  /sse/stream       event stream (text/event-stream)
//	GET  /ws/stream        event stream (WebSocket, one event per text frame)
//	POST /api/v1/events    publish an event
//	GET  /health           health and client counts
//
// Both streams accept ?types=a,b and ?user=id filters.
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"k8s.io/utils/clock"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/server/broker"
	"github.com/agentstation/learnstream/internal/server/broker/adapters"
	"github.com/agentstation/learnstream/internal/server/cache"
	"github.com/agentstation/learnstream/internal/server/demo"
	"github.com/agentstation/learnstream/internal/server/middleware"
	"github.com/agentstation/learnstream/internal/server/sse"
	ws "github.com/agentstation/learnstream/internal/server/websocket"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/events"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app            application.Application
	idempotency    *cache.Cache
	broker         *broker.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	rateLimiter    *middleware.RateLimiter
	demo           *demo.Generator
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	services       conc.WaitGroup
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := app.Logger()

	b := broker.New(logger)
	hub := ws.NewHub(logger, middleware.OriginChecker(corsConfig(cfg)))
	broadcaster := sse.NewBroadcaster(logger, sse.WithKeepalive(cfg.Keepalive))

	b.Subscribe(adapters.NewWebSocketSubscriber(hub))
	b.Subscribe(adapters.NewSSESubscriber(broadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		app:            app,
		idempotency:    cache.New(cfg.IdempotencyTTL, cfg.IdempotencyTTL),
		broker:         b,
		wsHub:          hub,
		sseBroadcaster: broadcaster,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, clock.RealClock{}, logger)
	}
	if cfg.DemoEnabled {
		s.demo = demo.New(b, cfg.DemoUserID, clock.RealClock{}, logger)
	}

	logger.Debug().Msg("Server instance created")
	return s, nil
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster,
// and the demo generator when enabled).
func (s *Server) Start() {
	s.services.Go(func() { s.broker.Run(s.ctx) })
	s.services.Go(func() { s.wsHub.Run(s.ctx) })
	s.services.Go(func() { s.sseBroadcaster.Run(s.ctx) })
	if s.rateLimiter != nil {
		s.services.Go(func() { s.rateLimiter.Cleanup(s.ctx) })
	}
	if s.demo != nil {
		s.services.Go(func() { s.demo.Run(s.ctx, s.config.DemoInterval) })
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Publish queues an event for every stream client.
func (s *Server) Publish(e *events.Event) bool {
	return s.broker.Publish(e)
}

// Shutdown stops background services, ending every open stream, and waits
// for them until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.services.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	s.Start()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server starting")
		serveErr <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		_ = s.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	// End streams first; http.Server.Shutdown waits for active handlers.
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("Server stopped gracefully")
	return nil
}

// StreamCount returns the number of open SSE and WebSocket streams.
func (s *Server) StreamCount() int {
	return s.sseBroadcaster.ClientCount() + s.wsHub.ClientCount()
}

// Ready reports whether both stream transports are subscribed to the broker.
func (s *Server) Ready() bool {
	return s.broker.SubscriberCount() == 2
}
