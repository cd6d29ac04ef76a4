package events

import (
	"bytes"
	"encoding/json"
	"time"
)

// Envelope field names shared by every event.
const (
	fieldUserID    = "userId"
	fieldEventType = "eventType"
	fieldTimestamp = "timestamp"
)

// Event is a decoded AppEvent. Events handed to listeners and stored in
// snapshots are shared and must be treated as read-only.
type Event struct {
	UserID    string
	Type      Type
	Timestamp *int64 // epoch millis
	Payload   Payload

	raw json.RawMessage
}

// New builds an event for publishing. A zero timestamp is left unset.
func New(userID string, t Type, payload Payload, ts time.Time) *Event {
	e := &Event{UserID: userID, Type: t, Payload: payload}
	if !ts.IsZero() {
		ms := ts.UnixMilli()
		e.Timestamp = &ms
	}
	return e
}

// Time returns the event timestamp, or the zero time when none was sent.
func (e *Event) Time() time.Time {
	if e.Timestamp == nil {
		return time.Time{}
	}
	return time.UnixMilli(*e.Timestamp)
}

// Raw returns the JSON object the event was decoded from. Events built with
// New are encoded on demand.
func (e *Event) Raw() json.RawMessage {
	if e.raw != nil {
		return e.raw
	}
	data, err := e.MarshalJSON()
	if err != nil {
		return nil
	}
	return data
}

// Field returns a top-level field of the raw event object, including fields
// the typed payload does not model.
func (e *Event) Field(name string) (json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Raw(), &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}

// MarshalJSON encodes the event in its flat wire shape.
func (e *Event) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)

	if e.Payload != nil {
		data, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(data, []byte("null")) {
			if err := json.Unmarshal(data, &fields); err != nil {
				return nil, err
			}
		}
	}

	userID, _ := json.Marshal(e.UserID)
	eventType, _ := json.Marshal(e.Type)
	fields[fieldUserID] = userID
	fields[fieldEventType] = eventType
	if e.Timestamp != nil {
		ts, _ := json.Marshal(*e.Timestamp)
		fields[fieldTimestamp] = ts
	}

	return json.Marshal(fields)
}
