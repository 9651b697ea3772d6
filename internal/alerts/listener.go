package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Permavault-Club/season-engine/internal/attr"
)

// AlertSubscriber is the slice of the event bus the listener consumes from.
type AlertSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Listener mirrors every published alert into the service's own log stream,
// so alerts are visible even when no external sink is attached to the
// system stream.
type Listener struct {
	bus    AlertSubscriber
	logger *slog.Logger
}

// NewListener creates a Listener.
func NewListener(bus AlertSubscriber, logger *slog.Logger) *Listener {
	return &Listener{bus: bus, logger: logger}
}

// Run consumes alerts until ctx is cancelled or the subscription closes.
func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.bus.Subscribe(ctx, TopicSystemAlert)
	if err != nil {
		return fmt.Errorf("alerts listener subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			l.log(ctx, msg)
			msg.Ack()
		}
	}
}

func (l *Listener) log(ctx context.Context, msg *message.Message) {
	var alert Alert
	if err := json.Unmarshal(msg.Payload, &alert); err != nil {
		l.logger.WarnContext(ctx, "Unparseable alert payload", attr.Error(err))
		return
	}

	attrs := []any{
		attr.String("alert_id", alert.ID),
		attr.String("code", alert.Code),
		attr.Any("context", alert.Context),
	}

	if alert.Severity == SeverityCritical {
		l.logger.ErrorContext(ctx, alert.Message, attrs...)
		return
	}
	l.logger.WarnContext(ctx, alert.Message, attrs...)
}
