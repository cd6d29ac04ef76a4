package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/internal/server/response"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/logging"
)

// AuthConfig describes the shared-token check. An empty Token turns the
// check off.
type AuthConfig struct {
	Token       string
	HeaderName  string
	QueryParam  string
	PublicPaths []string
}

// NewAuthConfig requires token on every path except public ones.
func NewAuthConfig(token string, public ...string) AuthConfig {
	return AuthConfig{
		Token:       token,
		HeaderName:  "X-API-Key",
		QueryParam:  constants.TokenQueryParam,
		PublicPaths: public,
	}
}

// Enabled reports whether a token is required.
func (c AuthConfig) Enabled() bool { return c.Token != "" }

// tokenFrom looks in the API key header, then Authorization (with or
// without a Bearer prefix), then the query parameter. EventSource cannot
// set headers, so browsers rely on the query parameter.
func (c AuthConfig) tokenFrom(r *http.Request) string {
	if t := r.Header.Get(c.HeaderName); t != "" {
		return t
	}
	if t := r.Header.Get("Authorization"); t != "" {
		return strings.TrimPrefix(t, "Bearer ")
	}
	if c.QueryParam == "" {
		return ""
	}
	return r.URL.Query().Get(c.QueryParam)
}

// Auth rejects requests that do not present the configured token.
// Failures are logged through the request logger when Logger runs first.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	hint := "send the token in " + config.HeaderName + ", an Authorization bearer header or ?" + config.QueryParam + "="
	want := []byte(config.Token)

	return func(next http.Handler) http.Handler {
		if !config.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			got := config.tokenFrom(r)
			if subtle.ConstantTimeCompare([]byte(got), want) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			logging.FromContextOr(r.Context(), logger).Warn().
				Str("remote_addr", r.RemoteAddr).
				Bool("token_provided", got != "").
				Msg("Authentication failed")
			response.Unauthorized(w, "Invalid or missing token", hint)
		})
	}
}
