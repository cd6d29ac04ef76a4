// Package alerts reports connection status to the user, separately from the
// event output.
package alerts

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/learnstream/internal/cmd/output"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failure the command cannot recover from.
	LevelError Level = iota
	// LevelWarning indicates a problem the command is working around.
	LevelWarning
	// LevelInfo indicates a neutral status change.
	LevelInfo
	// LevelSuccess indicates a completed step.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

// Icon returns the status symbol for the level.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return "✗"
	case LevelWarning:
		return "!"
	case LevelInfo:
		return "i"
	case LevelSuccess:
		return "✓"
	default:
		return "?"
	}
}

// color returns the ANSI color code for terminal output.
func (l Level) color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	case LevelInfo:
		return "\033[36m"
	case LevelSuccess:
		return "\033[32m"
	default:
		return resetColor
	}
}

const resetColor = "\033[0m"

// Alert is one status notification.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error
}

// New creates an alert stamped with the current time.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message, Timestamp: time.Now()}
}

// NewError creates an error alert.
func NewError(message string) *Alert { return New(LevelError, message) }

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert { return New(LevelWarning, message) }

// NewInfo creates an info alert.
func NewInfo(message string) *Alert { return New(LevelInfo, message) }

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert { return New(LevelSuccess, message) }

// WithError attaches the underlying error.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends context lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns the one-line form of the alert.
func (a *Alert) String() string {
	message := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		message += ": " + a.Err.Error()
	}
	return message
}

// Writer receives alerts.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(*Alert) error

// WriteAlert calls f.
func (f WriterFunc) WriteAlert(alert *Alert) error {
	return f(alert)
}

// DiscardWriter drops every alert.
var DiscardWriter Writer = WriterFunc(func(*Alert) error { return nil })

// FormatWriter writes alerts in an output format: JSON and YAML as
// structured records, anything else as an icon line with indented details.
type FormatWriter struct {
	mu       sync.Mutex
	w        io.Writer
	format   output.Format
	useColor bool
}

// NewFormatWriter creates a FormatWriter. Lines are colored when w is a
// terminal.
func NewFormatWriter(w io.Writer, format output.Format) *FormatWriter {
	return &FormatWriter{w: w, format: format, useColor: isTerminal(w)}
}

// record is the structured form of an alert.
type record struct {
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Error     string   `json:"error,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// WriteAlert implements Writer. It is safe for concurrent use.
func (fw *FormatWriter) WriteAlert(alert *Alert) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	switch fw.format {
	case output.FormatJSON:
		return (&output.JSONFormatter{}).Format(fw.w, toRecord(alert))
	case output.FormatYAML:
		if _, err := io.WriteString(fw.w, "---\n"); err != nil {
			return err
		}
		return (&output.YAMLFormatter{}).Format(fw.w, toRecord(alert))
	default:
		return fw.writeLine(alert)
	}
}

func (fw *FormatWriter) writeLine(alert *Alert) error {
	var b strings.Builder
	if fw.useColor {
		b.WriteString(alert.Level.color())
		b.WriteString(alert.String())
		b.WriteString(resetColor)
	} else {
		b.WriteString(alert.String())
	}
	b.WriteByte('\n')
	for _, detail := range alert.Details {
		b.WriteString("   ")
		b.WriteString(detail)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(fw.w, b.String())
	return err
}

func toRecord(alert *Alert) record {
	r := record{
		Level:     alert.Level.String(),
		Message:   alert.Message,
		Details:   alert.Details,
		Timestamp: alert.Timestamp.Format(time.RFC3339),
	}
	if alert.Err != nil {
		r.Error = alert.Err.Error()
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
