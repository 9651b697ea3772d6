package utils

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// MiddlewareHelpers produces the router middlewares shared by all modules.
type MiddlewareHelpers interface {
	CommonMetadataMiddleware(module string) message.HandlerMiddleware
	RoutingMetadataMiddleware() message.HandlerMiddleware
}

type middlewareHelpers struct{}

// NewMiddlewareHelper creates the default MiddlewareHelpers implementation.
func NewMiddlewareHelper() MiddlewareHelpers {
	return middlewareHelpers{}
}

// CommonMetadataMiddleware stamps outgoing messages with the producing module
// and a handled-at timestamp.
func (middlewareHelpers) CommonMetadataMiddleware(module string) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			if err != nil {
				return nil, err
			}
			handledAt := time.Now().UTC().Format(time.RFC3339)
			for _, out := range produced {
				out.Metadata.Set("module", module)
				out.Metadata.Set("handled_at", handledAt)
			}
			return produced, nil
		}
	}
}

// RoutingMetadataMiddleware copies routing metadata from the incoming message
// onto every produced message so downstream consumers keep the origin topic.
func (middlewareHelpers) RoutingMetadataMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			if err != nil {
				return nil, err
			}
			origin := msg.Metadata.Get("topic")
			for _, out := range produced {
				if origin != "" {
					out.Metadata.Set("origin_topic", origin)
				}
			}
			return produced, nil
		}
	}
}
