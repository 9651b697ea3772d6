// Package alerts publishes operational alerts to the event bus. Delivery is
// fire-and-forget: a failed publish is logged and never propagated, so alert
// plumbing can never take down the operation that raised the alert.
package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Permavault-Club/season-engine/internal/attr"
	"github.com/Permavault-Club/season-engine/internal/utils"
)

// SystemStreamName is the JetStream stream alert subjects live on.
const SystemStreamName = "system"

// TopicSystemAlert is the subject alerts are published on.
const TopicSystemAlert = "system.alert"

// Severity levels for alerts.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is the payload published on the alert topic.
type Alert struct {
	ID        string            `json:"id"`
	Severity  string            `json:"severity"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Notifier sends alerts.
type Notifier interface {
	SendAlert(ctx context.Context, severity, code, msg string, fields map[string]string)
}

// AlertPublisher is the slice of the event bus alerts go out on.
type AlertPublisher interface {
	Publish(topic string, messages ...*message.Message) error
}

type busNotifier struct {
	bus     AlertPublisher
	helpers utils.Helpers
	logger  *slog.Logger
}

// NewNotifier creates a Notifier backed by the event bus.
func NewNotifier(bus AlertPublisher, helpers utils.Helpers, logger *slog.Logger) Notifier {
	return &busNotifier{bus: bus, helpers: helpers, logger: logger}
}

// SendAlert publishes an alert and swallows any failure.
func (n *busNotifier) SendAlert(ctx context.Context, severity, code, msg string, fields map[string]string) {
	alert := Alert{
		ID:        uuid.New().String(),
		Severity:  severity,
		Code:      code,
		Message:   msg,
		Context:   fields,
		Timestamp: time.Now().UTC(),
	}

	alertMsg, err := n.helpers.CreateNewMessage(alert, TopicSystemAlert)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to build alert message",
			attr.String("code", code),
			attr.Error(err),
		)
		return
	}

	if err := n.bus.Publish(TopicSystemAlert, alertMsg); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish alert",
			attr.String("code", code),
			attr.String("severity", severity),
			attr.Error(err),
		)
	}
}
