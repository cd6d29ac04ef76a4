package handlers

import (
	"io"
	"net/http"

	"github.com/agentstation/learnstream/internal/server/response"
	"github.com/agentstation/learnstream/pkg/constants"
	"github.com/agentstation/learnstream/pkg/errors"
	"github.com/agentstation/learnstream/pkg/events"
	"github.com/agentstation/learnstream/pkg/logging"
)

// IdempotencyKeyHeader names the header deduplicating retried publishes.
const IdempotencyKeyHeader = "Idempotency-Key"

// HandlePublish handles POST /api/v1/events. The body must be a valid
// AppEvent; it is broadcast unchanged to every matching stream client.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, r.Method)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxPublishBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.PayloadTooLarge(w, tooLarge.Limit)
			return
		}
		response.BadRequest(w, "Unreadable request body", err.Error())
		return
	}

	ctx := logging.WithLogger(r.Context(), logging.FromContextOr(r.Context(), h.logger))
	e, err := events.Decode(body)
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("Rejected invalid event")
		response.ErrorFromType(w, err)
		return
	}
	logger := logging.FromContext(logging.WithUser(logging.WithEventType(ctx, e.Type.String()), e.UserID))

	key := r.Header.Get(IdempotencyKeyHeader)
	if !h.Idempotency.Remember(key) {
		logger.Debug().Str("idempotency_key", key).Msg("Duplicate publish ignored")
		response.OK(w, map[string]any{
			"status":    "duplicate",
			"eventType": e.Type,
		})
		return
	}

	if !h.Publisher.Publish(e) {
		h.Idempotency.Forget(key)
		logger.Warn().Msg("Event queue full")
		response.ServiceUnavailable(w, "Event queue is full")
		return
	}

	logger.Debug().Msg("Event published")
	response.Accepted(w, map[string]any{
		"status":    "accepted",
		"eventType": e.Type,
	})
}
