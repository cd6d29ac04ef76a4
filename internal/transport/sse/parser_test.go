package sse

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, input string) []Event {
	t.Helper()
	var got []Event
	err := Parse(strings.NewReader(input), 1024, func(e Event) { got = append(got, e) })
	require.NoError(t, err)
	return got
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Event
	}{
		{
			name:  "single event",
			input: "data: {\"a\":1}\n\n",
			want:  []Event{{Data: `{"a":1}`}},
		},
		{
			name:  "multi-line data",
			input: "data: first\ndata: second\n\n",
			want:  []Event{{Data: "first\nsecond"}},
		},
		{
			name:  "comments and unknown fields",
			input: ": keepalive\nfoo: bar\ndata: x\n\n",
			want:  []Event{{Data: "x"}},
		},
		{
			name:  "crlf",
			input: "event: update\r\ndata: y\r\n\r\n",
			want:  []Event{{Event: "update", Data: "y"}},
		},
		{
			name:  "no space after colon",
			input: "data:z\n\n",
			want:  []Event{{Data: "z"}},
		},
		{
			name:  "id persists, retry is ignored",
			input: "id: 7\nretry: 1500\ndata: a\n\ndata: b\n\n",
			want: []Event{
				{ID: "7", Data: "a"},
				{ID: "7", Data: "b"},
			},
		},
		{
			name:  "event without data is not dispatched",
			input: "event: ping\n\ndata: c\n\n",
			want:  []Event{{Data: "c"}},
		},
		{
			name:  "empty data line dispatches empty data",
			input: "data\n\n",
			want:  []Event{{Data: ""}},
		},
		{
			name:  "retry only block is not dispatched",
			input: "retry: 3000\n\nretry: soon\ndata: d\n\n",
			want:  []Event{{Data: "d"}},
		},
		{
			name:  "pending event at eof is discarded",
			input: "data: done\n\ndata: partial\n",
			want:  []Event{{Data: "done"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAll(t, tt.input))
		})
	}
}

func TestParseLineTooLong(t *testing.T) {
	for _, size := range []int{2048, 3000, 8192} {
		input := "data: " + strings.Repeat("x", size) + "\n\n"
		err := Parse(strings.NewReader(input), 1024, func(Event) {
			t.Fatalf("oversized event of %d bytes dispatched", size)
		})
		assert.ErrorIs(t, err, bufio.ErrTooLong, "size %d", size)
	}
}

func TestParseLongLineWithinLimit(t *testing.T) {
	input := "data: " + strings.Repeat("x", 1000) + "\n\n"
	var got []Event
	require.NoError(t, Parse(strings.NewReader(input), 1024, func(e Event) { got = append(got, e) }))
	require.Len(t, got, 1)
	assert.Len(t, got[0].Data, 1000)
}
