package events

import "encoding/json"

// Payload is the variant part of an AppEvent. The set of implementations is
// closed: ProgressPayload, CompletionPayload, QuizCompletedPayload,
// FailurePayload, NotificationPayload, UserPayload and GenericPayload.
type Payload interface {
	Kind() Kind
	sealed()
}

// ProgressPayload reports the progress of a long-running generation job.
type ProgressPayload struct {
	JobID      string         `json:"jobId"`
	Step       string         `json:"step"`
	Percentage int            `json:"percentage"`
	Message    string         `json:"message,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Kind implements Payload.
func (ProgressPayload) Kind() Kind { return KindProgress }
func (ProgressPayload) sealed()    {}

// CompletionPayload announces a finished resource.
type CompletionPayload struct {
	ResourceID   string         `json:"resourceId"`
	ResourceType string         `json:"resourceType"`
	Message      string         `json:"message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Kind implements Payload.
func (CompletionPayload) Kind() Kind { return KindCompletion }
func (CompletionPayload) sealed()    {}

// QuizCompletedPayload is the completion payload of quiz.completed.
type QuizCompletedPayload struct {
	CompletionPayload
	QuizID        string `json:"quizId"`
	QuestionCount int    `json:"questionCount,omitempty"`
}

// Kind implements Payload.
func (QuizCompletedPayload) Kind() Kind { return KindQuizCompletion }
func (QuizCompletedPayload) sealed()    {}

// FailurePayload reports a failed job.
type FailurePayload struct {
	Error     string         `json:"error"`
	ErrorCode string         `json:"errorCode,omitempty"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Kind implements Payload.
func (FailurePayload) Kind() Kind { return KindFailure }
func (FailurePayload) sealed()    {}

// NotificationPayload is a user-facing notification.
type NotificationPayload struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Priority       Priority `json:"priority"`
	Category       string   `json:"category,omitempty"`
}

// Kind implements Payload.
func (NotificationPayload) Kind() Kind { return KindNotification }
func (NotificationPayload) sealed()    {}

// UserPayload announces a level-up.
type UserPayload struct {
	NewLevel        int      `json:"newLevel"`
	TotalXP         int      `json:"totalXp"`
	UnlockedRewards []string `json:"unlockedRewards,omitempty"`
}

// Kind implements Payload.
func (UserPayload) Kind() Kind { return KindUser }
func (UserPayload) sealed()    {}

// GenericPayload holds the non-envelope fields of an event type without a
// dedicated variant.
type GenericPayload struct {
	Fields map[string]json.RawMessage
}

// Kind implements Payload.
func (GenericPayload) Kind() Kind { return KindGeneric }
func (GenericPayload) sealed()    {}

// MarshalJSON flattens the fields.
func (p GenericPayload) MarshalJSON() ([]byte, error) {
	if p.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Fields)
}
