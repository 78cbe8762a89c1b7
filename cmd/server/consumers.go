package main

import (
	"context"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/internal/queue"
)

const consumerGroup = "apikit"

// registers the background handlers for domain events
func registerConsumers(r *queue.Runner) {
	r.Register(queue.TopicUserRegistered, consumerGroup, onUserRegistered)
	r.Register(queue.TopicUserDeleted, consumerGroup, onUserDeleted)
}

func onUserRegistered(_ context.Context, msg queue.Message) error {
	var event users.RegisteredEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}

	logger.Info("welcome user",
		"user_id", event.UserID,
		"email", event.Email,
		"registered_at", event.RegisteredAt,
		"attempt", msg.Attempt,
	)

	return nil
}

func onUserDeleted(_ context.Context, msg queue.Message) error {
	var event users.DeletedEvent
	if err := msg.Decode(&event); err != nil {
		return err
	}

	logger.Info("user account removed",
		"user_id", event.UserID,
		"deleted_at", event.DeletedAt,
	)

	return nil
}
