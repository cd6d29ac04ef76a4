package events

import (
	"bytes"
	"encoding/json"

	"github.com/agentstation/learnstream/pkg/errors"
)

// Decode parses a stream message into an Event and checks that the payload
// matches what its eventType promises. Every failure is a *errors.DecodeError.
func Decode(data []byte) (*Event, error) {
	data = bytes.TrimSpace(data)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.NewDecodeError("", "", "malformed JSON object", err)
	}
	if fields == nil {
		return nil, errors.NewDecodeError("", "", "message is null", nil)
	}

	var eventType string
	if err := requireString(fields, fieldEventType, &eventType); err != nil {
		return nil, errors.NewDecodeError("", fieldEventType, err.Error(), nil)
	}
	t := Type(eventType)

	e := &Event{Type: t, raw: append(json.RawMessage(nil), data...)}
	if err := requireString(fields, fieldUserID, &e.UserID); err != nil {
		return nil, errors.NewDecodeError(eventType, fieldUserID, err.Error(), nil)
	}
	if raw, ok := fields[fieldTimestamp]; ok && !isNull(raw) {
		var ts int64
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil, errors.NewDecodeError(eventType, fieldTimestamp, "must be an integer", err)
		}
		e.Timestamp = &ts
	}

	payload, err := decodePayload(t, data, fields)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return e, nil
}

func decodePayload(t Type, data []byte, fields map[string]json.RawMessage) (Payload, error) {
	eventType := string(t)
	kind := KindOf(t)
	required := requiredFields[kind]

	switch kind {
	case KindProgress:
		var p ProgressPayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		if p.Percentage < 0 || p.Percentage > 100 {
			return nil, errors.NewDecodeError(eventType, "percentage", "must be between 0 and 100", nil)
		}
		return p, nil

	case KindCompletion:
		var p CompletionPayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		return p, nil

	case KindQuizCompletion:
		var p QuizCompletedPayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		if p.QuestionCount < 0 {
			return nil, errors.NewDecodeError(eventType, "questionCount", "must not be negative", nil)
		}
		return p, nil

	case KindFailure:
		var p FailurePayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		return p, nil

	case KindNotification:
		var p NotificationPayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		if !p.Priority.Valid() {
			return nil, errors.NewDecodeError(eventType, "priority", "unknown priority "+string(p.Priority), nil)
		}
		return p, nil

	case KindUser:
		var p UserPayload
		if err := decodeInto(eventType, data, fields, &p, required...); err != nil {
			return nil, err
		}
		return p, nil

	default:
		rest := make(map[string]json.RawMessage, len(fields))
		for k, v := range fields {
			switch k {
			case fieldUserID, fieldEventType, fieldTimestamp:
			default:
				rest[k] = v
			}
		}
		return GenericPayload{Fields: rest}, nil
	}
}

// decodeInto checks that every required field is present and non-null, then
// unmarshals the whole object into dst so JSON type mismatches surface as
// decode errors naming the field.
func decodeInto(eventType string, data []byte, fields map[string]json.RawMessage, dst any, required ...string) error {
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			return errors.NewDecodeError(eventType, name, "is required", nil)
		}
		if string(raw) == `""` {
			return errors.NewDecodeError(eventType, name, "must not be empty", nil)
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errors.NewDecodeError(eventType, typeErr.Field, "must be "+typeErr.Type.String(), err)
		}
		return errors.NewDecodeError(eventType, "", "payload does not match event type", err)
	}
	return nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

func requireString(fields map[string]json.RawMessage, name string, dst *string) error {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return fieldError("is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fieldError("must be a string")
	}
	if *dst == "" {
		return fieldError("must not be empty")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
