// Package handlerwrapper adapts typed event handlers to watermill's
// HandlerFunc. Handlers unmarshal into a concrete payload type and return the
// messages to publish as (topic, payload) results.
package handlerwrapper

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// Result is one message a handler wants published.
type Result struct {
	Topic   string
	Payload any
}

// ReturningMetrics records handler-level outcomes. A nil value disables
// recording.
type ReturningMetrics interface {
	RecordHandlerAttempt(ctx context.Context, handlerName string)
	RecordHandlerDuration(ctx context.Context, handlerName string, duration time.Duration)
	RecordHandlerSuccess(ctx context.Context, handlerName string)
	RecordHandlerFailure(ctx context.Context, handlerName string)
}

// WrapTransformingTyped turns a typed handler into a watermill HandlerFunc.
// The payload is unmarshaled into T; returned results are marshaled with the
// original message's correlation ID carried forward.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	helpers utils.Helpers,
	metrics ReturningMetrics,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("handler", handlerName),
			attribute.String("message_uuid", msg.UUID),
		))
		defer span.End()

		if metrics != nil {
			metrics.RecordHandlerAttempt(ctx, handlerName)
			start := time.Now()
			defer func() {
				metrics.RecordHandlerDuration(ctx, handlerName, time.Since(start))
			}()
		}

		var payload T
		if err := helpers.UnmarshalPayload(msg, &payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal handler payload",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			span.RecordError(err)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			return nil, err
		}

		out, err := handler(ctx, &payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler returned error",
				attr.String("handler", handlerName),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			span.RecordError(err)
			if metrics != nil {
				metrics.RecordHandlerFailure(ctx, handlerName)
			}
			return nil, err
		}

		produced := make([]*message.Message, 0, len(out))
		for _, r := range out {
			resultMsg, err := helpers.CreateResultMessage(msg, r.Payload, r.Topic)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to build result message",
					attr.String("handler", handlerName),
					attr.String("topic", r.Topic),
					attr.Error(err),
				)
				span.RecordError(err)
				if metrics != nil {
					metrics.RecordHandlerFailure(ctx, handlerName)
				}
				return nil, err
			}
			produced = append(produced, resultMsg)
		}

		if metrics != nil {
			metrics.RecordHandlerSuccess(ctx, handlerName)
		}
		return produced, nil
	}
}
