// Package types provides the types command, which documents the event
// types a learnstream server sends.
package types

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	md "github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/agentstation/learnstream/cmd/application"
	"github.com/agentstation/learnstream/internal/cmd/output"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
)

// Entry describes one event type.
type Entry struct {
	Type     string   `json:"event_type"`
	Kind     string   `json:"kind"`
	Required []string `json:"required"`
}

// NewCommand creates the types command.
func NewCommand(app application.Application) *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:     "types [domain...]",
		GroupID: "stream",
		Short:   "List the known event types",
		Long: `Types lists the well-known event types with their payload kind and the
fields a publisher must set. Arguments restrict the list to the given domains,
such as quiz or guide.

With --markdown the catalog is written as a Markdown document that includes
an example of each event.`,
		Example: `  learnstream types
  learnstream types quiz flashcards -o json
  learnstream types --markdown > EVENTS.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := Catalog(args...)
			if err != nil {
				return err
			}
			if markdown {
				return WriteMarkdown(cmd.OutOrStdout(), list, time.Now())
			}
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			if format == "" {
				format = output.DetectFormat("")
			}
			if format == output.FormatTable {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), table(list))
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "write the catalog as Markdown")
	return cmd
}

// Catalog returns the known event types, restricted to domains when any
// are given. An unknown domain is an error.
func Catalog(domains ...string) ([]Entry, error) {
	want := make(map[string]bool, len(domains))
	for _, d := range domains {
		want[strings.ToLower(d)] = false
	}

	var list []Entry
	for _, t := range events.Known() {
		if len(want) > 0 {
			if _, ok := want[t.Domain()]; !ok {
				continue
			}
			want[t.Domain()] = true
		}
		kind := events.KindOf(t)
		list = append(list, Entry{
			Type:     t.String(),
			Kind:     kind.String(),
			Required: events.RequiredFields(kind),
		})
	}

	for d, seen := range want {
		if !seen {
			return nil, &errors.ValidationError{Field: "domain", Value: d, Message: "no known event types"}
		}
	}
	return list, nil
}

func table(list []Entry) output.Data {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		rows = append(rows, []string{e.Type, e.Kind, strings.Join(e.Required, ", ")})
	}
	return output.Data{
		Headers: []string{"Event Type", "Kind", "Required Fields"},
		Rows:    rows,
	}
}

// WriteMarkdown writes list as a Markdown document. Examples are stamped
// with ts.
func WriteMarkdown(w io.Writer, list []Entry, ts time.Time) error {
	doc := md.NewMarkdown(w)
	doc.H1("Event types").LF()
	doc.PlainText("Every event carries " + md.Code("eventType") + " and " + md.Code("userId") +
		". " + md.Code("timestamp") + " is optional, in milliseconds since the epoch.").LF()

	rows := make([][]string, 0, len(list))
	for _, e := range list {
		required := make([]string, 0, len(e.Required))
		for _, f := range e.Required {
			required = append(required, md.Code(f))
		}
		rows = append(rows, []string{md.Code(e.Type), e.Kind, strings.Join(required, ", ")})
	}
	doc.Table(md.TableSet{
		Header: []string{"Event type", "Kind", "Required fields"},
		Rows:   rows,
	}).LF()

	for _, e := range list {
		raw, err := json.MarshalIndent(events.Example(events.Type(e.Type), "user-1", ts), "", "  ")
		if err != nil {
			return err
		}
		doc.H2(e.Type).LF()
		doc.CodeBlocks(md.SyntaxHighlight("json"), string(raw)).LF()
	}
	return doc.Build()
}
