package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Event is one dispatched server-sent event.
type Event struct {
	ID    string
	Event string // empty for the default "message" type
	Data  string
}

// Parse reads an event stream from r and calls fn for every dispatched
// event. Lines may end in LF or CRLF. Data lines of one event are joined with
// LF. Comments and unknown fields, retry included, are ignored. An event is
// dispatched on a blank line and only if it carried data. An event still
// pending when r ends is discarded. A line longer than maxLine bytes fails
// with bufio.ErrTooLong. Parse returns the read error, or nil at EOF.
func Parse(r io.Reader, maxLine int, fn func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, maxLine)), maxLine)

	var (
		data    bytes.Buffer
		hasData bool
		current Event
		lastID  string
	)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if hasData {
				current.ID = lastID
				current.Data = strings.TrimSuffix(data.String(), "\n")
				fn(current)
			}
			data.Reset()
			hasData = false
			current = Event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "event":
			current.Event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				lastID = value
			}
		}
	}
	return scanner.Err()
}
