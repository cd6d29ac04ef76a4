// Package transport provides the HTTP plumbing shared by the CLI: picking a
// stream transport for a url and publishing events to a learnstream server.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client publishes events over HTTP with a credential applied.
type Client struct {
	http       *http.Client
	auth       Authenticator
	credential string
}

// New creates a client that applies credential with auth. An empty
// credential sends requests unauthenticated.
func New(auth Authenticator, credential string) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
		auth:       auth,
		credential: credential,
	}
}

// Do performs a request with authentication and JSON headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.credential != "" {
		c.auth.Apply(req, c.credential)
	}
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// IdempotencyKeyHeader lets a server drop retried publishes.
const IdempotencyKeyHeader = "Idempotency-Key"

// Publish posts e to the events endpoint of the server at origin. Retrying
// with the same key publishes the event at most once; an empty key gets a
// fresh one.
func (c *Client) Publish(ctx context.Context, origin string, e *events.Event, key string) error {
	endpoint := strings.TrimRight(origin, "/") + constants.DefaultEventsPath

	body, err := json.Marshal(e)
	if err != nil {
		return errors.WrapResource("encode", "event", string(e.Type), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WrapResource("create", "request", "POST "+endpoint, err)
	}
	if key == "" {
		key = uuid.NewString()
	}
	req.Header.Set(IdempotencyKeyHeader, key)

	resp, err := c.Do(req)
	if err != nil {
		return errors.WrapResource("publish", "event", string(e.Type), err)
	}
	return DecodeResponse(endpoint, resp, nil)
}

// DecodeResponse closes the body of resp and decodes it into target when
// target is non-nil. Any status outside 2xx becomes an *errors.APIError.
func DecodeResponse(endpoint string, resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxPublishBodySize))
	if err != nil {
		return errors.WrapResource("read", "response", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError(endpoint, resp.StatusCode, apiMessage(body, resp.Status))
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapResource("decode", "response", endpoint, err)
	}
	return nil
}

// apiMessage extracts the error message of a server response envelope.
func apiMessage(body []byte, fallback string) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		if envelope.Error.Details != "" {
			return envelope.Error.Message + ": " + envelope.Error.Details
		}
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fallback
}
