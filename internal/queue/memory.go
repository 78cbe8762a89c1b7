package queue

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/algorave/apikit/internal/logger"
)

const memoryTopicBuffer = 256

// in-process broker used when no redis is configured
// messages do not survive a restart
type MemoryBroker struct {
	mu     sync.Mutex
	topics map[string]chan Message
	seq    atomic.Int64
	done   chan struct{}
	once   sync.Once
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		topics: make(map[string]chan Message),
		done:   make(chan struct{}),
	}
}

func (b *MemoryBroker) topic(name string) chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.topics[name]
	if !ok {
		ch = make(chan Message, memoryTopicBuffer)
		b.topics[name] = ch
	}

	return ch
}

// enqueues payload; blocks while the topic buffer is full
func (b *MemoryBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	msg := Message{
		ID:          strconv.FormatInt(b.seq.Add(1), 10),
		Topic:       topic,
		Payload:     append([]byte(nil), payload...),
		PublishedAt: time.Now(),
	}

	return b.enqueue(ctx, msg)
}

func (b *MemoryBroker) enqueue(ctx context.Context, msg Message) error {
	select {
	case b.topic(msg.Topic) <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	}
}

// consumes topic until ctx is done; failed messages are retried up to maxDeliveries
// retries are held by the consumer, never pushed back onto the topic buffer
// all groups share one stream of messages
func (b *MemoryBroker) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	ch := b.topic(topic)

	var retries []Message
	for {
		var msg Message

		if len(retries) > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-b.done:
				return nil
			default:
			}

			msg, retries = retries[0], retries[1:]
		} else {
			select {
			case <-ctx.Done():
				return nil
			case <-b.done:
				return nil
			case msg = <-ch:
			}
		}

		msg.Attempt++

		err := h(ctx, msg)
		if err == nil {
			continue
		}

		if msg.Attempt >= maxDeliveries {
			logger.ErrorErr(err, "dropping message after repeated failures",
				"topic", topic,
				"group", group,
				"message_id", msg.ID,
				"attempts", msg.Attempt,
			)
			continue
		}

		logger.Warn("message handler failed, retrying",
			"topic", topic,
			"message_id", msg.ID,
			"attempt", msg.Attempt,
			"error", err,
		)

		retries = append(retries, msg)
	}
}

// drops the oldest buffered messages beyond maxLen
func (b *MemoryBroker) Trim(_ context.Context, topic string, maxLen int64) error {
	ch := b.topic(topic)

	for int64(len(ch)) > maxLen {
		select {
		case <-ch:
		default:
			return nil
		}
	}

	return nil
}

// stops subscribers and rejects further publishes
func (b *MemoryBroker) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
