// Package eventbus provides the NATS JetStream event bus used by every
// module. The bus satisfies watermill's message.Publisher and
// message.Subscriber so it can be handed straight to a message router.
package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// HealthChecker reports liveness of a bus component.
type HealthChecker interface {
	Name() string
	Healthy() bool
}

// EventBus is the messaging surface modules depend on.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
	GetNATSConnection() *nats.Conn
	GetJetStream() jetstream.JetStream
	GetHealthCheckers() []HealthChecker
	CreateStream(ctx context.Context, streamName string) error
}
