// Package watch provides the watch command, which follows the event stream
// and prints every event it receives.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/cmd/alerts"
	"github.com/agentstation/learnstream/internal/cmd/output"
	"github.com/agentstation/learnstream/internal/session"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/logging"
	"github.com/agentstation/learnstream/pkg/stream"
)

// Options holds the watch flags.
type Options struct {
	Types       []string
	Limit       int
	TokenFile   string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewCommand creates the watch command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "stream",
		Short:   "Follow the event stream and print events",
		Long: `Watch connects to the event stream and prints every event as it arrives
until interrupted. Connection changes are logged to stderr.

The stream URL scheme picks the transport: http and https use server-sent
events, ws and wss use WebSocket. When the connection fails the client
retries with exponential backoff and watch exits with an error once it
gives up.

With --token-file the credential is read from a file that is watched for
changes: writing a new token reconnects with it and removing the file (or
emptying it) disconnects until a token appears again.`,
		Example: `  # Follow every event as a table
  learnstream watch

  # Only quiz completions and notifications, as JSON lines
  learnstream watch --types quiz.completed,notification.new -o json

  # Stop after the first event
  learnstream watch --limit 1

  # Follow a session credential file
  learnstream watch --token-file ~/.config/learnstream/token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return Run(cmd, app, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Types, "types", nil, "event types to print (comma-separated, default all)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "exit after this many events (0 for no limit)")
	cmd.Flags().StringVar(&opts.TokenFile, "token-file", "", "credential file to follow")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "reconnect attempts before giving up (0 for default)")
	cmd.Flags().DurationVar(&opts.BaseDelay, "base-delay", 0, "first reconnect delay (0 for default)")
	cmd.Flags().DurationVar(&opts.MaxDelay, "max-delay", 0, "reconnect delay cap (0 for default)")

	return cmd
}

// Run executes watch with the given options.
func Run(cmd *cobra.Command, app application.Application, opts *Options) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}
	if opts.Limit < 0 {
		return errors.NewValidationError("limit", opts.Limit, "must not be negative")
	}

	logger := app.Logger()
	client, err := app.Client(clientOptions(opts)...)
	if err != nil {
		return errors.WrapResource("create", "client", "", err)
	}
	defer client.Disconnect()

	url := app.StreamURL()
	ctx, cancel := context.WithCancel(logging.WithURL(logging.WithLogger(cmd.Context(), logger), url))
	defer cancel()
	logger = logging.FromContext(ctx)

	status := alerts.NewFormatWriter(cmd.ErrOrStderr(), format)
	received := stream.Events(ctx, client, opts.Types...)
	gaveUp := watchConnection(ctx, client, url, status)

	watcherErr := make(chan error, 1)
	if opts.TokenFile != "" {
		manager := session.NewManager(client, url, logger)
		fw, err := session.NewFileWatcher(opts.TokenFile, manager, logger)
		if err != nil {
			return err
		}
		go func() { watcherErr <- fw.Run(ctx) }()
	} else {
		client.Connect(url, app.Credential())
	}

	printer := output.NewEventPrinter(cmd.OutOrStdout(), format)
	count := 0
	for {
		select {
		case e, ok := <-received:
			if !ok {
				return nil
			}
			if err := printer.Print(e); err != nil {
				return fmt.Errorf("writing event: %w", err)
			}
			count++
			if opts.Limit > 0 && count >= opts.Limit {
				return nil
			}
		case <-gaveUp:
			err := errors.NewTransportError("stream", url, 0,
				fmt.Errorf("gave up after %d attempts", client.Attempts()))
			report(logger, status, alerts.NewError("Event stream unavailable").WithError(err))
			return err
		case err := <-watcherErr:
			if err != nil {
				return err
			}
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func clientOptions(opts *Options) []stream.Option {
	var out []stream.Option
	if opts.MaxAttempts > 0 {
		out = append(out, stream.WithMaxAttempts(opts.MaxAttempts))
	}
	if opts.BaseDelay > 0 {
		out = append(out, stream.WithBaseDelay(opts.BaseDelay))
	}
	if opts.MaxDelay > 0 {
		out = append(out, stream.WithMaxDelay(opts.MaxDelay))
	}
	return out
}

// watchConnection reports connection changes and returns a channel that is
// closed when the client stops retrying on its own.
func watchConnection(ctx context.Context, client *stream.Client, url string, status alerts.Writer) <-chan struct{} {
	logger := logging.FromContext(ctx)
	gaveUp := make(chan struct{})
	snapshots := stream.Watch(ctx, client)

	go func() {
		connected := false
		for snap := range snapshots {
			state := client.State()
			if snap.IsConnected != connected {
				connected = snap.IsConnected
				switch {
				case connected:
					report(logger, status, alerts.NewSuccess("Connected").WithDetails(url))
				case state == stream.ReconnectPending:
					report(logger, status, alerts.NewWarning("Connection lost, reconnecting").
						WithDetails(fmt.Sprintf("attempt %d", client.Attempts())))
				default:
					report(logger, status, alerts.NewInfo("Disconnected"))
				}
			}
			logger.Debug().Str("state", state.String()).Bool("connected", snap.IsConnected).Msg("Stream status")
			if !snap.IsConnected && state == stream.Disconnected && client.URL() != "" {
				close(gaveUp)
				return
			}
		}
	}()
	return gaveUp
}

// report writes a status alert. A failed write is logged, not returned.
func report(logger *zerolog.Logger, status alerts.Writer, a *alerts.Alert) {
	if err := status.WriteAlert(a); err != nil {
		logger.Debug().Err(err).Str("alert", a.Message).Msg("Failed to write status")
	}
}
