package main

import (
	"context"
	"fmt"

	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/internal/queue"
)

// retained history per stream after the hourly trim
const streamRetention = 10000

// registers periodic maintenance jobs
func registerJobs(s *Server) error {
	if err := s.scheduler.Register("db_health", "@every 1m", func(ctx context.Context) error {
		stat := s.db.Stat()
		s.metrics.SetDBConnections(stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns())

		if err := s.db.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return s.scheduler.Register("trim_streams", "@hourly", func(ctx context.Context) error {
		for _, topic := range []string{queue.TopicUserRegistered, queue.TopicUserDeleted} {
			if err := s.broker.Trim(ctx, topic, streamRetention); err != nil {
				return fmt.Errorf("failed to trim %s: %w", topic, err)
			}
		}

		logger.Debug("queue streams trimmed", "max_len", streamRetention)
		return nil
	})
}
