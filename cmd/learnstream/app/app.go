// Package app provides the application context and dependency management
// for the learnstream CLI: configuration, logging, build information and
// construction of stream clients.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/transport"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/stream"
)

// App holds everything commands share.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config

	mu      sync.RWMutex
	logger  *zerolog.Logger
	clients []*stream.Client
}

var _ application.Application = (*App)(nil)

// New creates an App with configuration loaded from the environment,
// customized by opts.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

func (a *App) setLogger(logger *zerolog.Logger) {
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// StreamURL returns the configured stream URL.
func (a *App) StreamURL() string { return a.config.ResolvedStreamURL() }

// Credential returns the configured stream credential.
func (a *App) Credential() string { return a.config.ResolvedToken() }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Client returns a new stream client whose transport follows the stream
// URL's scheme. The client is disconnected on Shutdown.
func (a *App) Client(opts ...stream.Option) (*stream.Client, error) {
	logger := a.Logger()
	opts = append([]stream.Option{stream.WithLogger(logger)}, opts...)
	c := stream.NewClient(transport.ForURL(a.StreamURL(), logger), opts...)

	a.mu.Lock()
	a.clients = append(a.clients, c)
	a.mu.Unlock()
	return c, nil
}

// Shutdown disconnects every client the app created.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	clients := a.clients
	a.clients = nil
	a.mu.Unlock()

	for _, c := range clients {
		c.Disconnect()
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
