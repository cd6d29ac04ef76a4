package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger is a JSON logger whose output is kept for assertions. Writes
// are locked since transports log from their own goroutines.
type TestLogger struct {
	*zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTestLogger returns a TestLogger at trace level. zerolog's global level
// is restored when t finishes.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tl := &TestLogger{}
	l := zerolog.New(tl).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	tl.Logger = &l
	return tl
}

// NewNopLogger returns a logger that drops everything.
func NewNopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.Write(p)
}

// Output is everything logged so far.
func (tl *TestLogger) Output() string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buf.String()
}

// Entries decodes each logged line. Lines that are not JSON are skipped.
func (tl *TestLogger) Entries() []map[string]any {
	var entries []map[string]any
	for _, line := range strings.Split(tl.Output(), "\n") {
		var m map[string]any
		if line == "" || json.Unmarshal([]byte(line), &m) != nil {
			continue
		}
		entries = append(entries, m)
	}
	return entries
}

// Messages lists the message field of every entry.
func (tl *TestLogger) Messages() []string {
	var msgs []string
	for _, e := range tl.Entries() {
		if m, ok := e[zerolog.MessageFieldName].(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Reset drops captured output.
func (tl *TestLogger) Reset() {
	tl.mu.Lock()
	tl.buf.Reset()
	tl.mu.Unlock()
}

// AssertContains fails t unless the output contains substr.
func (tl *TestLogger) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if out := tl.Output(); !strings.Contains(out, substr) {
		t.Errorf("log output missing %q:\n%s", substr, out)
	}
}

// AssertNotContains fails t if the output contains substr.
func (tl *TestLogger) AssertNotContains(t testing.TB, substr string) {
	t.Helper()
	if out := tl.Output(); strings.Contains(out, substr) {
		t.Errorf("log output unexpectedly has %q:\n%s", substr, out)
	}
}
