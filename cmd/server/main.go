package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/algorave/apikit/internal/config"
	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/internal/middleware"
)

// @title apikit API
// @version 1.0
// @description REST API scaffold with an explicit request pipeline
// @description
// @description Every response is wrapped in an envelope:
// @description {"success": bool, "data" | "error": ..., "meta": {"correlationId", "timestamp"}}

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	logger.Configure(cfg.Environment)
	logger.Info("starting apikit server", "environment", cfg.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := NewServer(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	handler, err := middleware.Compression(srv.router, cfg.CompressionLevel, cfg.CompressionThreshold)
	if err != nil {
		logger.Fatal("failed to configure compression", "error", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start queue consumers and cron jobs
	srv.runner.Start(context.Background())
	srv.scheduler.Start()

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	srv.scheduler.Stop(shutdownCtx)

	srv.runner.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	srv.broker.Close() //nolint:errcheck,gosec // best-effort cleanup on shutdown

	// close database connection
	srv.db.Close()

	logger.Info("server stopped")
}
