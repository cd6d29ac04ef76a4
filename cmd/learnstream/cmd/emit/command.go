// Package emit provides the emit command, which publishes one event to a
// learnstream server.
package emit

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/cmd/output"
	"github.com/agentstation/learnstream/internal/transport"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
)

// Options holds the emit flags.
type Options struct {
	User   string
	Data   string
	Fields []string
	Key    string
	Origin string
}

// NewCommand creates the emit command.
func NewCommand(app application.Application) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:     "emit <eventType>",
		GroupID: "stream",
		Short:   "Publish an event to the server",
		Long: `Emit builds an event, validates it and publishes it to the server's events
endpoint, which forwards it to every open stream.

The event starts from the --data JSON object. Each --field key=value is then
set on it; values that parse as JSON keep their type and anything else is a
string. The eventType comes from the argument, userId from --user and the
timestamp defaults to now.

The server drops a publish whose idempotency key it has already seen, so
retrying with the same --key is safe.`,
		Example: `  # Announce a finished quiz
  learnstream emit quiz.completed --user u1 \
    --data '{"resourceId":"q1","resourceType":"quiz","quizId":"q1","questionCount":10}'

  # Send a notification built from fields
  learnstream emit notification.new --user u1 --field notificationId=n1 \
    --field title=Ready --field "message=Your quiz is ready" --field priority=high`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, app, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "userId of the event")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON object with the event fields")
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "key=value field (repeatable)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "idempotency key (default random)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "server origin (default derived from the stream URL)")

	return cmd
}

// Run builds, validates and publishes one event.
func Run(cmd *cobra.Command, app application.Application, eventType string, opts *Options) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	e, err := Build(eventType, opts, time.Now())
	if err != nil {
		return err
	}

	origin := opts.Origin
	if origin == "" {
		if origin, err = Origin(app.StreamURL()); err != nil {
			return err
		}
	}

	client := transport.New(&transport.BearerAuth{}, app.Credential())
	if err := client.Publish(cmd.Context(), origin, e, opts.Key); err != nil {
		return err
	}
	app.Logger().Info().
		Str("event_type", e.Type.String()).
		Str("origin", origin).
		Msg("Event published")

	if format == output.FormatTable {
		return output.NewFormatter(format).Format(cmd.OutOrStdout(), output.EventTable([]*events.Event{e}))
	}
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), e)
}

// Build assembles the event described by opts and validates it. now is the
// timestamp used when none is given.
func Build(eventType string, opts *Options, now time.Time) (*events.Event, error) {
	if strings.TrimSpace(eventType) == "" {
		return nil, errors.NewValidationError("eventType", eventType, "must not be empty")
	}

	fields := make(map[string]json.RawMessage)
	if opts.Data != "" {
		if err := json.Unmarshal([]byte(opts.Data), &fields); err != nil {
			return nil, errors.NewValidationError("data", opts.Data, "must be a JSON object")
		}
	}

	for _, f := range opts.Fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, errors.NewValidationError("field", f, "must be key=value")
		}
		fields[key] = fieldValue(value)
	}

	fields["eventType"], _ = json.Marshal(eventType)
	if opts.User != "" {
		fields["userId"], _ = json.Marshal(opts.User)
	}
	if _, ok := fields["timestamp"]; !ok {
		fields["timestamp"], _ = json.Marshal(now.UnixMilli())
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.WrapResource("encode", "event", eventType, err)
	}
	return events.Decode(data)
}

// fieldValue keeps JSON literals and quotes everything else.
func fieldValue(value string) json.RawMessage {
	if json.Valid([]byte(value)) {
		return json.RawMessage(value)
	}
	quoted, _ := json.Marshal(value)
	return quoted
}

// Origin returns the server origin of a stream URL. WebSocket schemes map
// to their HTTP counterparts.
func Origin(streamURL string) (string, error) {
	u, err := url.Parse(streamURL)
	if err != nil || u.Host == "" {
		return "", errors.NewValidationError("url", streamURL, "must be an absolute stream URL")
	}
	scheme := u.Scheme
	switch scheme {
	case "ws":
		scheme = "http"
	case "wss":
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}
