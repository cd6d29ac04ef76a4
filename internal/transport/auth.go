package transport

import (
	"net/http"

	"github.com/agentstation/learnstream/pkg/constants"
)

// Authenticator applies a credential to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request, credential string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth sends the credential as an Authorization bearer token.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
}

// HeaderAuth sends the credential in a custom header such as X-API-Key.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, credential string) {
	req.Header.Set(a.Header, credential)
}

// QueryAuth sends the credential as a query parameter. The stream endpoints
// use the token parameter since browsers cannot set headers on event streams.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, credential string) {
	if req.URL == nil {
		return
	}
	param := a.Param
	if param == "" {
		param = constants.TokenQueryParam
	}
	query := req.URL.Query()
	query.Set(param, credential)
	req.URL.RawQuery = query.Encode()
}
