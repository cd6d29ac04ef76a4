package events

import (
	"slices"
	"time"
)

// requiredFields lists the payload fields each kind must carry, besides
// the userId and eventType envelope.
var requiredFields = map[Kind][]string{
	KindProgress:       {"jobId", "step", "percentage"},
	KindCompletion:     {"resourceId", "resourceType"},
	KindQuizCompletion: {"resourceId", "resourceType", "quizId"},
	KindFailure:        {"error"},
	KindNotification:   {"notificationId", "title", "message", "priority"},
	KindUser:           {"newLevel", "totalXp"},
}

// RequiredFields returns the payload fields an event of kind k must carry.
func RequiredFields(k Kind) []string {
	return slices.Clone(requiredFields[k])
}

// Known lists the well-known event types in catalog order.
func Known() []Type {
	return []Type{
		QuizProgress, QuizCompleted, QuizFailed,
		FlashcardsProgress, FlashcardsCompleted, FlashcardsFailed,
		GuideProgress, GuideCompleted, GuideFailed,
		NotificationNew,
		UserLevelUp,
	}
}

// Example returns a representative event of type t, as a server would
// send it.
func Example(t Type, userID string, ts time.Time) *Event {
	domain := t.Domain()
	var p Payload
	switch KindOf(t) {
	case KindProgress:
		p = ProgressPayload{JobID: "job-1", Step: "generating", Percentage: 50, Message: "Generating " + domain}
	case KindQuizCompletion:
		p = QuizCompletedPayload{
			CompletionPayload: CompletionPayload{ResourceID: "quiz-1", ResourceType: "quiz"},
			QuizID:            "quiz-1",
			QuestionCount:     10,
		}
	case KindCompletion:
		p = CompletionPayload{ResourceID: domain + "-1", ResourceType: domain, Message: "Your " + domain + " is ready"}
	case KindFailure:
		p = FailurePayload{Error: "generation timed out", ErrorCode: "TIMEOUT"}
	case KindNotification:
		p = NotificationPayload{NotificationID: "n-1", Title: "Quiz ready", Message: "Your quiz is ready", Priority: PriorityNormal}
	case KindUser:
		p = UserPayload{NewLevel: 2, TotalXP: 250, UnlockedRewards: []string{"streak-badge"}}
	default:
		p = GenericPayload{}
	}
	return New(userID, t, p, ts)
}
