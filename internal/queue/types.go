package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// topics published by the application
const (
	TopicUserRegistered = "user.registered"
	TopicUserDeleted    = "user.deleted"
)

// deliveries after which a failing message is dropped
const maxDeliveries = 3

var ErrClosed = errors.New("queue: broker closed")

// one delivered message
type Message struct {
	ID          string
	Topic       string
	Payload     []byte
	PublishedAt time.Time

	// 1 on first delivery
	Attempt int
}

// decodes the JSON payload into v
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s message %s: %w", m.Topic, m.ID, err)
	}

	return nil
}

// processes one message; a nil return acknowledges it
type Handler func(ctx context.Context, msg Message) error

// publishing half of a broker
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// publishes to and consumes from named topics
// each message of a topic reaches one consumer per group
type Broker interface {
	Publisher

	// blocks delivering messages to h until ctx is done or the broker closes
	Subscribe(ctx context.Context, topic, group string, h Handler) error

	// caps the retained history of topic at roughly maxLen messages
	Trim(ctx context.Context, topic string, maxLen int64) error

	Close() error
}

// JSON-encodes v and publishes it to topic
func PublishJSON(ctx context.Context, p Publisher, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}

	return p.Publish(ctx, topic, payload)
}
