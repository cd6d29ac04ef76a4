package alerts

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/learnstream/internal/cmd/output"
)

func TestAlertString(t *testing.T) {
	assert.Equal(t, "✓ Connected", NewSuccess("Connected").String())
	assert.Equal(t, "✗ Gave up: boom", NewError("Gave up").WithError(errors.New("boom")).String())
	assert.Equal(t, "unknown(9)", Level(9).String())
	assert.Equal(t, "?", Level(9).Icon())
}

func TestFormatWriterLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable)

	require.NoError(t, w.WriteAlert(NewWarning("Connection lost").WithDetails("retrying in 2s", "attempt 2")))

	assert.Equal(t, "! Connection lost\n   retrying in 2s\n   attempt 2\n", buf.String())
}

func TestFormatWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatJSON)

	require.NoError(t, w.WriteAlert(NewInfo("Disconnected")))
	require.NoError(t, w.WriteAlert(NewError("Gave up").WithError(errors.New("refused"))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "error", rec.Level)
	assert.Equal(t, "Gave up", rec.Message)
	assert.Equal(t, "refused", rec.Error)
	assert.NotEmpty(t, rec.Timestamp)
}

func TestFormatWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatYAML)

	require.NoError(t, w.WriteAlert(NewSuccess("Connected").WithDetails("http://localhost:8080/sse/stream")))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "level: success")
	assert.Contains(t, out, "message: Connected")
}

func TestDiscardWriter(t *testing.T) {
	assert.NoError(t, DiscardWriter.WriteAlert(NewInfo("ignored")))
}
