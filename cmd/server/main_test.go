package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/metrics"
	"codeberg.org/algorave/apikit/internal/queue"
	"codeberg.org/algorave/apikit/internal/scheduler"
)

func TestConsumers_DecodeEvents(t *testing.T) {
	payload, err := json.Marshal(users.RegisteredEvent{
		UserID:       "0b6f6a8e-1c2d-4e3f-8a9b-0c1d2e3f4a5b",
		Email:        "ada@example.com",
		RegisteredAt: time.Now(),
	})
	require.NoError(t, err)

	msg := queue.Message{ID: "1", Topic: queue.TopicUserRegistered, Payload: payload, Attempt: 1}
	assert.NoError(t, onUserRegistered(context.Background(), msg))

	bad := queue.Message{ID: "2", Topic: queue.TopicUserDeleted, Payload: []byte("not json"), Attempt: 1}
	assert.Error(t, onUserDeleted(context.Background(), bad))
}

func TestRegisterJobs(t *testing.T) {
	m := metrics.New()
	broker := queue.NewMemoryBroker()
	t.Cleanup(func() { _ = broker.Close() })

	s := &Server{metrics: m, broker: broker, scheduler: scheduler.New(m)}

	require.NoError(t, registerJobs(s))
	assert.Equal(t, []string{"db_health", "trim_streams"}, s.scheduler.Jobs())

	for i := 0; i < 3; i++ {
		require.NoError(t, broker.Publish(context.Background(), queue.TopicUserDeleted, []byte(`{}`)))
	}
	assert.NoError(t, s.scheduler.Trigger("trim_streams"))
}
