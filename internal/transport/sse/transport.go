// Package sse implements the event stream transport over HTTP server-sent
// events.
package sse

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

const name = "sse"

// Transport opens server-sent event streams.
type Transport struct {
	client *http.Client
	logger *zerolog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the HTTP client. It must not have a Timeout, which
// would cut every stream off.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// New creates an SSE transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		client: &http.Client{},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open implements stream.Transport. The url must be absolute http or https.
func (t *Transport) Open(rawURL string, sink stream.Sink) (stream.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", errors.ErrInvalidURL, u.Scheme)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}
	req.Header.Set("Accept", constants.EventStreamContentType)
	req.Header.Set("Cache-Control", "no-cache")

	c := &conn{ctx: ctx, cancel: cancel}
	go t.run(c, req, sink)
	return c, nil
}

func (t *Transport) run(c *conn, req *http.Request, sink stream.Sink) {
	target := req.URL.Redacted()

	resp, err := t.client.Do(req)
	if err != nil {
		if c.ctx.Err() == nil {
			sink.Failed(errors.NewTransportError(name, target, 0, err))
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if c.ctx.Err() == nil {
			sink.Failed(errors.NewTransportError(name, target, resp.StatusCode,
				errors.New(http.StatusText(resp.StatusCode))))
		}
		return
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType != constants.EventStreamContentType {
		t.logger.Warn().
			Str("url", target).
			Str("content_type", resp.Header.Get("Content-Type")).
			Msg("Stream response is not an event stream")
	}

	sink.Opened()
	err = Parse(resp.Body, constants.MaxMessageSize, func(e Event) {
		if c.ctx.Err() != nil {
			return
		}
		sink.Received([]byte(e.Data))
	})

	if c.ctx.Err() != nil {
		return
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	sink.Failed(errors.NewTransportError(name, target, 0, err))
}

// conn is one stream request. Closing cancels the request context.
type conn struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Close implements stream.Conn.
func (c *conn) Close() error {
	c.once.Do(c.cancel)
	return nil
}
