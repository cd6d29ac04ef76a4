package server

import (
	"net/http"

	"github.com/agentstation/learnstream/internal/server/handlers"
	"github.com/agentstation/learnstream/internal/server/middleware"
	"github.com/agentstation/learnstream/pkg/constants"
)

func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux, handlers.New(handlers.Deps{
		App:         s.app,
		Idempotency: s.idempotency,
		Publisher:   s.broker,
		SSE:         s.sseBroadcaster,
		WebSocket:   s.wsHub,
		Logger:      s.logger,
	}))
	return s.applyMiddleware(mux)
}

// registerRoutes mounts the stream endpoints at fixed paths and the API
// under the configured prefix. Only publishing is rate limited since
// streams are long-lived.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	publish := http.Handler(http.HandlerFunc(h.HandlePublish))
	if s.rateLimiter != nil {
		publish = middleware.RateLimit(s.rateLimiter)(publish)
	}

	routes := map[string]http.Handler{
		"/favicon.ico":                 http.HandlerFunc(noContent),
		"/health":                      http.HandlerFunc(h.HandleHealth),
		prefix + "/health":             http.HandlerFunc(h.HandleHealth),
		constants.DefaultStreamPath:    http.HandlerFunc(h.HandleSSE),
		constants.DefaultWebSocketPath: http.HandlerFunc(h.HandleWebSocket),
		prefix + "/events":             publish,
	}
	for path, handler := range routes {
		mux.Handle(path, handler)
	}
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// applyMiddleware wraps handler, outermost first: panics are recovered,
// requests get a scoped logger, CORS answers preflights before any token
// check.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	auth := middleware.NewAuthConfig(cfg.AuthToken, "/health", cfg.PathPrefix+"/health", "/favicon.ico")
	if cfg.AuthHeader != "" {
		auth.HeaderName = cfg.AuthHeader
	}

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
		middleware.CORS(corsConfig(cfg)),
		middleware.Auth(auth, s.logger),
	)(handler)
}

func corsConfig(cfg Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		c.AllowedOrigins = cfg.CORSOrigins
	}
	if cfg.AuthHeader != "" && cfg.AuthHeader != "X-API-Key" {
		c.AllowedHeaders = append(c.AllowedHeaders, cfg.AuthHeader)
	}
	return c
}
