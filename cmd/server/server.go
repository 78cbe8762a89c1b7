package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/config"
	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/internal/metrics"
	"codeberg.org/algorave/apikit/internal/pipeline"
	"codeberg.org/algorave/apikit/internal/queue"
	"codeberg.org/algorave/apikit/internal/scheduler"
)

const rateLimitPrefix = "apikit:ratelimit"

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := connectDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	broker, store, err := newBroker(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	registry, err := apperrors.NewRegistry(users.ErrorEntries()...)
	if err != nil {
		broker.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		db.Close()
		return nil, fmt.Errorf("failed to build error registry: %w", err)
	}

	publisher := queue.Instrument(broker, m)

	services, err := InitializeServices(cfg, db, publisher)
	if err != nil {
		broker.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	p := pipeline.New(pipeline.Options{
		Registry:  registry,
		Timeout:   cfg.RequestTimeout(),
		BodyLimit: cfg.BodyLimitBytes,
		Limiter: limiter.New(store, limiter.Rate{
			Period: cfg.RateLimitWindow,
			Limit:  int64(cfg.RateLimitMax),
		}),
	})

	runner := queue.NewRunner(broker, cfg.QueueConsumerRate, m)
	registerConsumers(runner)

	server := &Server{
		db:        db,
		config:    cfg,
		metrics:   m,
		pipeline:  p,
		broker:    broker,
		runner:    runner,
		scheduler: scheduler.New(m),
		services:  services,
	}

	if err := registerJobs(server); err != nil {
		broker.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		db.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	if err := RegisterRoutes(router, server); err != nil {
		broker.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		db.Close()
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	server.router = router

	return server, nil
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DBMaxConns) //nolint:gosec // bounded by config validation
	poolConfig.MinConns = int32(cfg.DBMinConns) //nolint:gosec // bounded by config validation
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// redis streams and a redis-backed limiter when REDIS_URL is set, in-process otherwise
func newBroker(ctx context.Context, cfg *config.Config) (queue.Broker, limiter.Store, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-memory queue and rate limiter")

		store := memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})

		return queue.NewMemoryBroker(), store, nil
	}

	broker, err := queue.NewRedisBroker(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store, err := redisstore.NewStoreWithOptions(broker.Client(), limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
	if err != nil {
		broker.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	return broker, store, nil
}
