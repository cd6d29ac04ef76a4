package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter/tw"

	"github.com/agentstation/learnstream/pkg/events"
)

// EventRow is the table shape of an event.
type EventRow struct {
	Time    string `json:"time"`
	Type    string `json:"event_type"`
	User    string `json:"user"`
	Summary string `json:"summary"`
}

// RowOf flattens e into a row. Events without a timestamp show "-".
func RowOf(e *events.Event) EventRow {
	ts := "-"
	if t := e.Time(); !t.IsZero() {
		ts = t.Local().Format(time.TimeOnly)
	}
	return EventRow{Time: ts, Type: e.Type.String(), User: e.UserID, Summary: Summary(e)}
}

// EventTable shapes events as table data.
func EventTable(list []*events.Event) Data {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		r := RowOf(e)
		rows = append(rows, []string{r.Time, r.Type, r.User, r.Summary})
	}
	return Data{
		Headers:   []string{"Time", "Event Type", "User", "Summary"},
		Rows:      rows,
		Alignment: []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft},
	}
}

// Summary describes the payload of e in one line.
func Summary(e *events.Event) string {
	switch p := e.Payload.(type) {
	case events.ProgressPayload:
		s := fmt.Sprintf("%s %d%%", p.Step, p.Percentage)
		if p.Message != "" {
			s += ": " + p.Message
		}
		return s
	case events.QuizCompletedPayload:
		s := "quiz " + p.QuizID + " ready"
		if p.QuestionCount > 0 {
			s += fmt.Sprintf(" (%d questions)", p.QuestionCount)
		}
		return s
	case events.CompletionPayload:
		s := p.ResourceType + " " + p.ResourceID + " ready"
		if p.Message != "" {
			s += ": " + p.Message
		}
		return s
	case events.FailurePayload:
		if p.ErrorCode != "" {
			return p.ErrorCode + ": " + p.Error
		}
		return p.Error
	case events.NotificationPayload:
		return fmt.Sprintf("[%s] %s: %s", p.Priority, p.Title, p.Message)
	case events.UserPayload:
		s := fmt.Sprintf("level %d (%d xp)", p.NewLevel, p.TotalXP)
		if len(p.UnlockedRewards) > 0 {
			s += " unlocked " + strings.Join(p.UnlockedRewards, ", ")
		}
		return s
	case events.GenericPayload:
		keys := make([]string, 0, len(p.Fields))
		for k := range p.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	default:
		return ""
	}
}

// EventPrinter writes events one at a time as they arrive. JSON is one
// compact object per line, YAML is a document stream and the table format
// prints a header once followed by fixed-width rows.
type EventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	header bool
}

// NewEventPrinter returns a printer writing to w.
func NewEventPrinter(w io.Writer, format Format) *EventPrinter {
	return &EventPrinter{w: w, format: format}
}

const rowFormat = "%-8s  %-22s  %-12s  %s\n"

// Print writes e. It is safe to call from several goroutines.
func (p *EventPrinter) Print(e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.format {
	case FormatJSON:
		return (&JSONFormatter{}).Format(p.w, e)
	case FormatYAML:
		if _, err := io.WriteString(p.w, "---\n"); err != nil {
			return err
		}
		return (&YAMLFormatter{}).Format(p.w, e)
	default:
		if !p.header {
			if _, err := fmt.Fprintf(p.w, rowFormat, "TIME", "EVENT TYPE", "USER", "SUMMARY"); err != nil {
				return err
			}
			p.header = true
		}
		r := RowOf(e)
		_, err := fmt.Fprintf(p.w, rowFormat, r.Time, r.Type, r.User, r.Summary)
		return err
	}
}
