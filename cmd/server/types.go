package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/auth"
	"codeberg.org/algorave/apikit/internal/config"
	"codeberg.org/algorave/apikit/internal/metrics"
	"codeberg.org/algorave/apikit/internal/pipeline"
	"codeberg.org/algorave/apikit/internal/queue"
	"codeberg.org/algorave/apikit/internal/scheduler"
)

// holds all dependencies and state for the API server
type Server struct {
	db        *pgxpool.Pool
	config    *config.Config
	metrics   *metrics.Metrics
	pipeline  *pipeline.Pipeline
	broker    queue.Broker
	runner    *queue.Runner
	scheduler *scheduler.Scheduler
	services  *Services
	router    *gin.Engine
}

// holds the domain services the routes are built over
type Services struct {
	Issuer *auth.Issuer
	Users  *users.Service
}
