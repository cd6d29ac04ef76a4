// Package serve provides the serve command, which runs the development
// event server.
package serve

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/server"
	"github.com/agentstation/learnstream/pkg/constants"
)

// NewCommand creates the serve command. defaults supplies the configuration
// that flags left unset keep.
func NewCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "server",
		Short:   "Run the development event server",
		Long: `Serve runs a development server that speaks the event stream wire format.

Endpoints:
  GET  /sse/stream       server-sent event stream
  GET  /ws/stream        WebSocket stream
  POST /api/v1/events    publish an event to every stream
  GET  /health           health check

Streams accept ?types=a,b and ?user=id filters. When a token is set, streams
and publishing require it as the token query parameter, the auth header or
an Authorization bearer header.`,
		Example: `  # Start on the default port
  learnstream serve

  # Require a token and emit demo events every two seconds
  learnstream serve --token secret --demo --demo-interval 2s

  # Allow a browser app on another origin
  learnstream serve --cors-origins http://localhost:3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := parseConfig(cmd, defaults())
			return run(cmd, app, cfg)
		},
	}

	cmd.Flags().Int("port", constants.DefaultPort, "Server port")
	cmd.Flags().String("host", constants.DefaultHost, "Bind address")
	cmd.Flags().String("prefix", "/api/v1", "API path prefix")
	cmd.Flags().String("token", "", "Require this token on streams and publishing")
	cmd.Flags().String("auth-header", "X-API-Key", "Authentication header name")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated, default all)")
	cmd.Flags().Int("rate-limit", constants.DefaultRateLimit, "Publish requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("keepalive", constants.KeepaliveInterval, "SSE keepalive interval")
	cmd.Flags().Bool("demo", false, "Emit a demo quiz generation lifecycle periodically")
	cmd.Flags().Duration("demo-interval", constants.DemoInterval, "Interval between demo sequences")
	cmd.Flags().String("demo-user", "demo-user", "User id of demo events")
	cmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read header timeout")
	cmd.Flags().Duration("idle-timeout", 120*time.Second, "HTTP idle timeout")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	logger := app.Logger()
	logger.Info().
		Str("addr", cfg.Addr()).
		Bool("auth", cfg.AuthToken != "").
		Bool("demo", cfg.DemoEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting development server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.ListenAndServe(cmd.Context())
}

// parseConfig overlays the flags the user set on cfg.
func parseConfig(cmd *cobra.Command, cfg server.Config) server.Config {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = mustGet(flags.GetInt(f.Name))
		case "host":
			cfg.Host = mustGet(flags.GetString(f.Name))
		case "prefix":
			cfg.PathPrefix = mustGet(flags.GetString(f.Name))
		case "token":
			cfg.AuthToken = mustGet(flags.GetString(f.Name))
		case "auth-header":
			cfg.AuthHeader = mustGet(flags.GetString(f.Name))
		case "cors-origins":
			cfg.CORSOrigins = mustGet(flags.GetStringSlice(f.Name))
		case "rate-limit":
			cfg.RateLimit = mustGet(flags.GetInt(f.Name))
		case "keepalive":
			cfg.Keepalive = mustGet(flags.GetDuration(f.Name))
		case "demo":
			cfg.DemoEnabled = mustGet(flags.GetBool(f.Name))
		case "demo-interval":
			cfg.DemoInterval = mustGet(flags.GetDuration(f.Name))
		case "demo-user":
			cfg.DemoUserID = mustGet(flags.GetString(f.Name))
		case "read-timeout":
			cfg.ReadTimeout = mustGet(flags.GetDuration(f.Name))
		case "idle-timeout":
			cfg.IdleTimeout = mustGet(flags.GetDuration(f.Name))
		}
	})
	return cfg
}

// mustGet panics when a flag defined in this package cannot be read.
func mustGet[T any](v T, err error) T {
	if err != nil {
		panic("programming error: " + err.Error())
	}
	return v
}
