// Package attr provides typed slog attribute helpers so log fields stay
// consistently named across modules.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// String returns a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an int attribute.
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Int64 returns an int64 attribute.
func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

// Bool returns a bool attribute.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Time returns a time attribute in RFC3339.
func Time(key string, value time.Time) slog.Attr {
	return slog.Time(key, value)
}

// Duration returns a duration attribute.
func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Any returns an attribute for an arbitrary value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Error returns the canonical error attribute. A nil error logs as "".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// SeasonNumber returns a season number attribute.
func SeasonNumber(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}

// Phase returns a transition phase attribute.
func Phase(key, phase string) slog.Attr {
	return slog.String(key, phase)
}

// TransitionID returns a transition record identifier attribute.
func TransitionID(key, id string) slog.Attr {
	return slog.String(key, id)
}

// EntityID returns a leaderboard entity identifier attribute.
func EntityID(key, id string) slog.Attr {
	return slog.String(key, id)
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context for later extraction.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// ExtractCorrelationID pulls the correlation ID off the context as an attribute.
// Missing IDs log as "unknown" rather than being dropped.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		return slog.String("correlation_id", id)
	}
	return slog.String("correlation_id", "unknown")
}

// CorrelationIDFromMsg reads the watermill correlation ID from message metadata.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}
