// Package utils holds the message construction helpers shared by handlers
// and routers.
package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

// Helpers builds and unmarshals watermill messages with consistent metadata.
type Helpers interface {
	CreateNewMessage(payload any, topic string) (*message.Message, error)
	CreateResultMessage(originalMsg *message.Message, payload any, topic string) (*message.Message, error)
	UnmarshalPayload(msg *message.Message, payload any) error
}

type helpers struct {
	logger *slog.Logger
}

// NewHelpers creates the default Helpers implementation.
func NewHelpers(logger *slog.Logger) Helpers {
	return &helpers{logger: logger}
}

// CreateNewMessage marshals payload and wraps it in a fresh message with a
// new correlation ID.
func (h *helpers) CreateNewMessage(payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("utils.CreateNewMessage: marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set("topic", topic)
	middleware.SetCorrelationID(uuid.New().String(), msg)
	return msg, nil
}

// CreateResultMessage builds a message that carries forward the correlation
// ID of the message that produced it.
func (h *helpers) CreateResultMessage(originalMsg *message.Message, payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("utils.CreateResultMessage: marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set("topic", topic)

	correlationID := middleware.MessageCorrelationID(originalMsg)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}

// UnmarshalPayload decodes a message payload into the given target.
func (h *helpers) UnmarshalPayload(msg *message.Message, payload any) error {
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return fmt.Errorf("utils.UnmarshalPayload: %w", err)
	}
	return nil
}
