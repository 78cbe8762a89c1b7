package queue

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordQueueMessage(topic, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[topic+":"+outcome]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counts[key]
}

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type event struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, PublishJSON(ctx, b, TopicUserRegistered, event{UserID: "u-1"}))

	received := make(chan Message, 1)
	go b.Subscribe(ctx, TopicUserRegistered, "test", func(_ context.Context, msg Message) error { //nolint:errcheck // returns on cancel
		received <- msg
		return nil
	})

	select {
	case msg := <-received:
		var got event
		require.NoError(t, msg.Decode(&got))
		assert.Equal(t, "u-1", got.UserID)
		assert.Equal(t, TopicUserRegistered, msg.Topic)
		assert.Equal(t, 1, msg.Attempt)
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestMemoryBroker_RedeliversFailedMessages(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "jobs", []byte(`{}`)))

	attempts := make(chan int, maxDeliveries)
	go b.Subscribe(ctx, "jobs", "test", func(_ context.Context, msg Message) error { //nolint:errcheck // returns on cancel
		attempts <- msg.Attempt
		if msg.Attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.Equal(t, 1, <-attempts)
	assert.Equal(t, 2, <-attempts)

	select {
	case n := <-attempts:
		t.Fatalf("unexpected redelivery %d after success", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroker_DropsAfterMaxDeliveries(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "jobs", []byte(`{}`)))

	attempts := make(chan int, maxDeliveries+1)
	go b.Subscribe(ctx, "jobs", "test", func(_ context.Context, msg Message) error { //nolint:errcheck // returns on cancel
		attempts <- msg.Attempt
		return errors.New("permanent")
	})

	for i := 1; i <= maxDeliveries; i++ {
		assert.Equal(t, i, <-attempts)
	}

	select {
	case n := <-attempts:
		t.Fatalf("message delivered %d times", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroker_RetryWithFullBuffer(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < memoryTopicBuffer; i++ {
		require.NoError(t, b.Publish(ctx, "jobs", []byte(`{}`)))
	}

	// blocks until the consumer frees a slot
	published := make(chan error, 1)
	go func() {
		published <- b.Publish(ctx, "jobs", []byte(`{}`))
	}()

	var handled atomic.Int64
	go b.Subscribe(ctx, "jobs", "test", func(_ context.Context, msg Message) error { //nolint:errcheck // returns on cancel
		if msg.ID == "1" && msg.Attempt == 1 {
			// let the pending publish take the freed slot
			time.Sleep(20 * time.Millisecond)
			return errors.New("transient")
		}

		handled.Add(1)
		return nil
	})

	require.Eventually(t, func() bool {
		return handled.Load() == memoryTopicBuffer+1
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case err := <-published:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish still blocked")
	}
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), "jobs", nil)
	assert.ErrorIs(t, err, ErrClosed)

	// subscribe returns immediately on a closed broker
	assert.NoError(t, b.Subscribe(context.Background(), "jobs", "test", func(context.Context, Message) error { return nil }))
}

func TestMemoryBroker_Trim(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Publish(ctx, "jobs", []byte("x")))
	}

	require.NoError(t, b.Trim(ctx, "jobs", 3))
	assert.Len(t, b.topic("jobs"), 3)
}

func TestRunner_ConsumesAndRecords(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	rec := &countingRecorder{}
	publisher := Instrument(b, rec)

	var mu sync.Mutex
	var handled []string

	done := make(chan struct{})
	runner := NewRunner(b, 1000, rec)
	runner.Register("jobs", "workers", func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()

		handled = append(handled, string(msg.Payload))
		if len(handled) == 3 {
			close(done)
		}
		return nil
	})
	runner.Start(context.Background())

	ctx := context.Background()
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, publisher.Publish(ctx, "jobs", []byte(p)))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("messages not consumed")
	}

	runner.Stop()

	assert.Equal(t, []string{"a", "b", "c"}, handled)
	assert.Equal(t, 3, rec.get("jobs:published"))
	assert.Equal(t, 3, rec.get("jobs:consumed"))
}

func TestRunner_RecoversHandlerPanics(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close() //nolint:errcheck // test cleanup

	rec := &countingRecorder{}
	runner := NewRunner(b, 1000, rec)

	calls := make(chan struct{}, maxDeliveries)
	runner.Register("jobs", "workers", func(context.Context, Message) error {
		calls <- struct{}{}
		panic("boom")
	})
	runner.Start(context.Background())
	defer runner.Stop()

	require.NoError(t, b.Publish(context.Background(), "jobs", []byte("x")))

	for i := 0; i < maxDeliveries; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not retried")
		}
	}

	assert.Eventually(t, func() bool { return rec.get("jobs:failed") == maxDeliveries }, time.Second, 10*time.Millisecond)
}

// runs against a real redis when APIKIT_TEST_REDIS_URL is set
func TestRedisBroker_Integration(t *testing.T) {
	url := os.Getenv("APIKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("APIKIT_TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := NewRedisBroker(ctx, url)
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck // test cleanup

	topic := "test." + b.consumer
	defer b.Client().Del(context.Background(), "stream:"+topic) //nolint:errcheck // test cleanup

	require.NoError(t, b.Publish(ctx, topic, []byte(`{"n":1}`)))

	attempts := make(chan int, maxDeliveries)
	subCtx, stop := context.WithCancel(ctx)
	defer stop()

	go b.Subscribe(subCtx, topic, "test", func(_ context.Context, msg Message) error { //nolint:errcheck // returns on cancel
		attempts <- msg.Attempt
		if msg.Attempt == 1 {
			return errors.New("transient")
		}
		return nil
	})

	assert.Equal(t, 1, <-attempts)
	assert.Equal(t, 2, <-attempts)

	require.NoError(t, b.Trim(ctx, topic, 0))
}
