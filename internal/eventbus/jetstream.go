package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
	"go.opentelemetry.io/otel/trace"

	"github.com/Permavault-Club/season-engine/internal/observability"
)

// jetStreamEventBus implements EventBus on NATS JetStream via watermill-nats.
type jetStreamEventBus struct {
	logger     *slog.Logger
	appType    string
	conn       *nats.Conn
	js         jetstream.JetStream
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
	metrics    observability.EventBusMetrics
	tracer     trace.Tracer
}

var _ EventBus = (*jetStreamEventBus)(nil)

// NewEventBus connects to NATS and builds the watermill publisher and
// subscriber on one shared connection. nkeySeedFile is optional; when set the
// connection authenticates with the nkey found there.
func NewEventBus(
	ctx context.Context,
	natsURL string,
	logger *slog.Logger,
	appType string,
	nkeySeedFile string,
	metrics observability.EventBusMetrics,
	tracer trace.Tracer,
) (EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	options := []nats.Option{
		nats.Name(appType),
		nats.RetryOnFailedConnect(true),
		nats.Timeout(30 * time.Second),
		nats.ReconnectWait(1 * time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				logger.Error("NATS subscription error",
					slog.String("subject", s.Subject),
					slog.String("queue", s.Queue),
					slog.String("error", err.Error()),
				)
			} else {
				logger.Error("NATS connection error", slog.String("error", err.Error()))
			}
		}),
	}

	if nkeySeedFile != "" {
		opt, err := nkeyOption(nkeySeedFile)
		if err != nil {
			return nil, fmt.Errorf("eventbus.NewEventBus: %w", err)
		}
		options = append(options, opt)
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("eventbus.NewEventBus: connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus.NewEventBus: create JetStream context: %w", err)
	}

	publisher, err := wmnats.NewPublisherWithNatsConn(conn, wmnats.PublisherPublishConfig{
		Marshaler: &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
		},
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus.NewEventBus: create publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriberWithNatsConn(conn, wmnats.SubscriberSubscriptionConfig{
		Unmarshaler:      &wmnats.NATSMarshaler{},
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		JetStream: wmnats.JetStreamConfig{
			Disabled:          false,
			AutoProvision:     false,
			DurablePrefix:     appType,
			DurableCalculator: durableName,
		},
	}, wmLogger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("eventbus.NewEventBus: create subscriber: %w", err)
	}

	bus := &jetStreamEventBus{
		logger:     logger,
		appType:    appType,
		conn:       conn,
		js:         js,
		publisher:  publisher,
		subscriber: subscriber,
		metrics:    metrics,
		tracer:     tracer,
	}

	for _, stream := range []string{"season", "leaderboard", "system"} {
		if err := bus.CreateStream(ctx, stream); err != nil {
			conn.Close()
			return nil, fmt.Errorf("eventbus.NewEventBus: %w", err)
		}
	}

	return bus, nil
}

// durableName derives a durable consumer name from the subscriber prefix and
// topic. Dots are not legal in consumer names.
func durableName(prefix, topic string) string {
	return prefix + "-" + strings.ReplaceAll(topic, ".", "-")
}

// nkeyOption loads an nkey seed file and returns the matching auth option.
func nkeyOption(seedFile string) (nats.Option, error) {
	seed, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("read nkey seed: %w", err)
	}
	kp, err := nkeys.FromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("parse nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive nkey public key: %w", err)
	}
	return nats.Nkey(pub, kp.Sign), nil
}

// Publish publishes messages to a topic and records publish metrics.
func (b *jetStreamEventBus) Publish(topic string, messages ...*message.Message) error {
	ctx := context.Background()
	if err := b.publisher.Publish(topic, messages...); err != nil {
		if b.metrics != nil {
			b.metrics.RecordPublishFailure(ctx, topic)
		}
		return fmt.Errorf("eventbus.Publish %s: %w", topic, err)
	}
	if b.metrics != nil {
		for range messages {
			b.metrics.RecordMessagePublished(ctx, topic)
		}
	}
	return nil
}

// Subscribe subscribes to a topic through the durable JetStream consumer.
func (b *jetStreamEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	msgs, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("eventbus.Subscribe %s: %w", topic, err)
	}
	if b.metrics == nil {
		return msgs, nil
	}

	counted := make(chan *message.Message)
	go func() {
		defer close(counted)
		for msg := range msgs {
			b.metrics.RecordMessageReceived(ctx, topic)
			counted <- msg
		}
	}()
	return counted, nil
}

// CreateStream ensures a stream exists covering streamName.> subjects.
// CreateOrUpdateStream makes this safe to call on every startup.
func (b *jetStreamEventBus) CreateStream(ctx context.Context, streamName string) error {
	if !isValidStreamName(streamName) {
		return fmt.Errorf("eventbus.CreateStream: invalid stream name %q", streamName)
	}

	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      strings.ToUpper(streamName),
		Subjects:  []string{streamName + ".>"},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("eventbus.CreateStream %s: %w", streamName, err)
	}
	return nil
}

func (b *jetStreamEventBus) GetNATSConnection() *nats.Conn {
	return b.conn
}

func (b *jetStreamEventBus) GetJetStream() jetstream.JetStream {
	return b.js
}

// GetHealthCheckers exposes the connection as a health check target.
func (b *jetStreamEventBus) GetHealthCheckers() []HealthChecker {
	return []HealthChecker{connHealth{conn: b.conn}}
}

// Close drains the watermill components and then the connection.
func (b *jetStreamEventBus) Close() error {
	var firstErr error
	if err := b.publisher.Close(); err != nil {
		firstErr = err
	}
	if err := b.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	b.conn.Close()
	return firstErr
}

type connHealth struct {
	conn *nats.Conn
}

func (c connHealth) Name() string { return "nats" }

func (c connHealth) Healthy() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func isValidStreamName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
