// Package application provides the application interface for learnstream commands.
//
// Commands accept an Application rather than the concrete App type so they
// can be tested with Mock:
//
//	mock := &application.Mock{
//	    StreamURLFunc: func() string { return srv.URL + "/sse/stream" },
//	}
//	cmd := watch.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/pkg/stream"
)

// Application provides what commands need from the running app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns a new event stream client for the configured stream
	// URL. The transport follows the URL scheme.
	Client(opts ...stream.Option) (*stream.Client, error)

	// StreamURL returns the configured stream URL.
	StreamURL() string

	// Credential returns the configured stream credential, or "".
	Credential() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
