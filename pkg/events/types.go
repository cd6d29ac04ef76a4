// Package events defines the AppEvent family delivered over the learning
// platform's real-time stream.
//
// Every event shares an envelope (userId, eventType, optional timestamp) and
// carries exactly one payload variant. The eventType decides the variant:
// quiz.completed is a quiz completion, *.progress, *.completed and *.failed
// are job progress, completion and failure, notification.* is a user
// notification and user.level_up is a level-up. Any other type decodes to a
// GenericPayload.
package events

import "strings"

// Type is the eventType discriminant of an AppEvent.
type Type string

// Well-known event types.
const (
	QuizProgress  Type = "quiz.progress"
	QuizCompleted Type = "quiz.completed"
	QuizFailed    Type = "quiz.failed"

	FlashcardsProgress  Type = "flashcards.progress"
	FlashcardsCompleted Type = "flashcards.completed"
	FlashcardsFailed    Type = "flashcards.failed"

	GuideProgress  Type = "guide.progress"
	GuideCompleted Type = "guide.completed"
	GuideFailed    Type = "guide.failed"

	NotificationNew Type = "notification.new"

	UserLevelUp Type = "user.level_up"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// Domain returns the part of the type before the first dot ("quiz" for quiz.completed).
func (t Type) Domain() string {
	s := string(t)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Kind identifies the payload variant an event type carries.
type Kind int

// Payload kinds.
const (
	KindGeneric Kind = iota
	KindProgress
	KindCompletion
	KindQuizCompletion
	KindFailure
	KindNotification
	KindUser
)

var kindNames = map[Kind]string{
	KindGeneric:        "generic",
	KindProgress:       "progress",
	KindCompletion:     "completion",
	KindQuizCompletion: "quiz_completion",
	KindFailure:        "failure",
	KindNotification:   "notification",
	KindUser:           "user",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf returns the payload kind an event type must carry.
func KindOf(t Type) Kind {
	s := string(t)
	switch {
	case t == QuizCompleted:
		return KindQuizCompletion
	case t == UserLevelUp:
		return KindUser
	case strings.HasPrefix(s, "notification."):
		return KindNotification
	case strings.HasSuffix(s, ".progress"):
		return KindProgress
	case strings.HasSuffix(s, ".completed"):
		return KindCompletion
	case strings.HasSuffix(s, ".failed"):
		return KindFailure
	default:
		return KindGeneric
	}
}

// Priority of a notification.
type Priority string

// Notification priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
