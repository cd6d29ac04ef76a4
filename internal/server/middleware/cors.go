package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists what browsers may do cross-origin. An empty or "*"
// origin list allows any origin. Entries of the form "https://*.example.com"
// match any subdomain.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSConfig lets any page open a stream and publish events.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "Idempotency-Key", "Last-Event-ID"},
		MaxAge:         24 * time.Hour,
	}
}

// allows reports whether origin may be echoed back. It also reports
// whether every origin is allowed, in which case "*" is sent instead.
func (c CORSConfig) allows(origin string) (ok, any bool) {
	if len(c.AllowedOrigins) == 0 {
		return true, true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return true, true
		}
		if origin == "" {
			continue
		}
		if allowed == origin {
			return true, false
		}
		if prefix, suffix, wild := strings.Cut(allowed, "*"); wild &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) &&
			len(origin) > len(prefix)+len(suffix) {
			return true, false
		}
	}
	return false, false
}

// CORS sets the Access-Control headers and answers preflight requests.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			switch ok, anyOrigin := config.allows(origin); {
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case ok:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginChecker applies the same origin rules to WebSocket upgrades.
// Requests without an Origin header come from non-browser clients and pass.
func OriginChecker(config CORSConfig) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		ok, _ := config.allows(origin)
		return ok
	}
}
