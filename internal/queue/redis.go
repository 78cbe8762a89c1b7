package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"codeberg.org/algorave/apikit/internal/logger"
)

const (
	// stream:{topic}
	keyStream = "stream:%s"

	fieldPayload     = "payload"
	fieldPublishedAt = "published_at"

	readBlock = 2 * time.Second
	readCount = 16

	// approximate cap applied on every publish
	defaultStreamMaxLen = 100_000
)

// broker over redis streams with consumer groups
// unacknowledged messages stay pending and are re-delivered on the next read
type RedisBroker struct {
	client   *redis.Client
	consumer string
	done     chan struct{}
	once     sync.Once
}

// connects to redisURL and verifies the connection
func NewRedisBroker(ctx context.Context, redisURL string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis")

	return NewRedisBrokerFromClient(client), nil
}

// wraps an existing client; Close closes it
func NewRedisBrokerFromClient(client *redis.Client) *RedisBroker {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "apikit"
	}

	return &RedisBroker{
		client:   client,
		consumer: host + "-" + uuid.NewString()[:8],
		done:     make(chan struct{}),
	}
}

// returns the underlying client for collaborators sharing the connection
func (b *RedisBroker) Client() *redis.Client {
	return b.client
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: fmt.Sprintf(keyStream, topic),
		MaxLen: defaultStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			fieldPayload:     payload,
			fieldPublishedAt: time.Now().UnixMilli(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// consumes topic as a member of group until ctx is done
// pending messages of this consumer are re-delivered before new ones
func (b *RedisBroker) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	stream := fmt.Sprintf(keyStream, topic)

	err := b.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}

	attempts := make(map[string]int)

	// "0" reads our pending entries, ">" reads new ones
	cursor := "0"

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		default:
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{stream, cursor},
			Count:    readCount,
			Block:    readBlock,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return nil
			}

			logger.ErrorErr(err, "failed to read from stream", "stream", stream, "group", group)
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		delivered := 0
		failed := false
		for _, s := range streams {
			for _, xm := range s.Messages {
				delivered++
				if !b.deliver(ctx, stream, group, topic, xm, attempts, h) {
					failed = true
				}
			}
		}

		switch {
		case failed:
			// retry the pending ones after a short pause
			cursor = "0"
			if !sleep(ctx, time.Second) {
				return nil
			}
		case cursor == "0" && delivered == 0:
			cursor = ">"
		}
	}
}

// runs h for one entry; reports false when the entry stays pending for retry
func (b *RedisBroker) deliver(ctx context.Context, stream, group, topic string, xm redis.XMessage, attempts map[string]int, h Handler) bool {
	attempts[xm.ID]++

	msg := Message{
		ID:      xm.ID,
		Topic:   topic,
		Attempt: attempts[xm.ID],
	}

	if v, ok := xm.Values[fieldPayload].(string); ok {
		msg.Payload = []byte(v)
	}

	if v, ok := xm.Values[fieldPublishedAt].(string); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			msg.PublishedAt = time.UnixMilli(ms)
		}
	}

	err := h(ctx, msg)
	if err != nil && msg.Attempt < maxDeliveries {
		logger.Warn("message handler failed, leaving pending",
			"stream", stream,
			"message_id", xm.ID,
			"attempt", msg.Attempt,
			"error", err,
		)
		return false
	}

	if err != nil {
		logger.ErrorErr(err, "dropping message after repeated failures",
			"stream", stream,
			"group", group,
			"message_id", xm.ID,
			"attempts", msg.Attempt,
		)
	}

	delete(attempts, xm.ID)

	if err := b.client.XAck(ctx, stream, group, xm.ID).Err(); err != nil {
		logger.ErrorErr(err, "failed to ack message", "stream", stream, "message_id", xm.ID)
	}

	return true
}

func (b *RedisBroker) Trim(ctx context.Context, topic string, maxLen int64) error {
	stream := fmt.Sprintf(keyStream, topic)

	if err := b.client.XTrimMaxLenApprox(ctx, stream, maxLen, 0).Err(); err != nil {
		return fmt.Errorf("failed to trim %s: %w", stream, err)
	}

	return nil
}

// stops subscribers and closes the redis connection
func (b *RedisBroker) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.client.Close()
	})

	return err
}

// waits for d; false when ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
