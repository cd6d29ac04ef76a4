package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{ name string }

var (
	loggerKey    = ctxKey{"logger"}
	requestIDKey = ctxKey{"request_id"}
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return FromContextOr(ctx, Default())
}

// FromContextOr returns the logger stored in ctx, or fallback.
func FromContextOr(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return fallback
}

// With returns a context whose logger carries key=value.
func With(ctx context.Context, key, value string) context.Context {
	child := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &child)
}

// WithRequestID records the request id in ctx and on its logger.
func WithRequestID(ctx context.Context, id string) context.Context {
	return With(context.WithValue(ctx, requestIDKey, id), "request_id", id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithEventType tags the context logger with an AppEvent type.
func WithEventType(ctx context.Context, eventType string) context.Context {
	return With(ctx, "event_type", eventType)
}

// WithURL tags the context logger with a stream URL.
func WithURL(ctx context.Context, url string) context.Context {
	return With(ctx, "url", url)
}

// WithUser tags the context logger with a platform user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return With(ctx, "user_id", userID)
}
