// Package demo publishes a synthetic quiz generation flow so stream clients
// can be exercised without a real backend.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"github.com/agentstation/learnstream/pkg/events"
)

// Publisher accepts events for broadcast.
type Publisher interface {
	Publish(*events.Event) bool
}

var steps = []struct {
	name    string
	percent int
}{
	{"extracting", 20},
	{"generating", 60},
	{"reviewing", 90},
}

// Generator emits one quiz flow per tick: progress steps, the completed
// quiz and a notification announcing it.
type Generator struct {
	publisher Publisher
	userID    string
	clock     clock.WithTicker
	logger    *zerolog.Logger
}

// New creates a generator publishing events for userID.
func New(publisher Publisher, userID string, clk clock.WithTicker, logger *zerolog.Logger) *Generator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Generator{publisher: publisher, userID: userID, clock: clk, logger: logger}
}

// Run emits a flow every interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context, interval time.Duration) {
	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	g.logger.Info().Dur("interval", interval).Str("user_id", g.userID).Msg("Demo event generator started")
	for {
		select {
		case <-ctx.Done():
			g.logger.Info().Msg("Demo event generator stopped")
			return
		case <-ticker.C():
			g.Emit()
		}
	}
}

// Emit publishes one complete flow and returns the events it published.
func (g *Generator) Emit() []*events.Event {
	jobID := uuid.NewString()
	quizID := uuid.NewString()
	now := g.clock.Now()

	flow := make([]*events.Event, 0, len(steps)+2)
	for _, s := range steps {
		flow = append(flow, events.New(g.userID, events.QuizProgress, events.ProgressPayload{
			JobID:      jobID,
			Step:       s.name,
			Percentage: s.percent,
		}, now))
	}
	flow = append(flow,
		events.New(g.userID, events.QuizCompleted, events.QuizCompletedPayload{
			CompletionPayload: events.CompletionPayload{
				ResourceID:   quizID,
				ResourceType: "quiz",
				Message:      "Your quiz is ready",
			},
			QuizID:        quizID,
			QuestionCount: 10,
		}, now),
		events.New(g.userID, events.NotificationNew, events.NotificationPayload{
			NotificationID: uuid.NewString(),
			Title:          "Quiz ready",
			Message:        fmt.Sprintf("Quiz %s has 10 questions", quizID[:8]),
			Priority:       events.PriorityNormal,
			Category:       "quiz",
		}, now),
	)

	published := flow[:0]
	for _, e := range flow {
		if g.publisher.Publish(e) {
			published = append(published, e)
		}
	}
	g.logger.Debug().Str("job_id", jobID).Int("events", len(published)).Msg("Demo flow emitted")
	return published
}
