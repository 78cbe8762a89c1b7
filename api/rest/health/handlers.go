package health

import (
	"context"
	"net/http"
	"time"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/pipeline"
)

const (
	serviceName  = "apikit"
	version      = "1.0.0"
	probeTimeout = 2 * time.Second
)

// Handler godoc
// @Summary Health check
// @Description Returns the server health status and the state of each dependency
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} envelope.Envelope
// @Router /health [get]
func Handler(deps map[string]Pinger) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		checks := make(map[string]string, len(deps))
		healthy := true

		for name, dep := range deps {
			ctx, cancel := context.WithTimeout(req.Context(), probeTimeout)
			err := dep.Ping(ctx)
			cancel()

			if err != nil {
				req.Logger.Warn("health check failed", "dependency", name, "error", err)
				checks[name] = "unavailable"
				healthy = false
				continue
			}

			checks[name] = "ok"
		}

		if !healthy {
			return pipeline.Fail(apperrors.Unavailable("one or more dependencies are unavailable").WithDetails(checks))
		}

		return pipeline.Respond(http.StatusOK, Response{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
			Checks:  checks,
		})
	}
}

// PingHandler godoc
// @Summary Ping
// @Description Responds with pong
// @Tags health
// @Produce json
// @Success 200 {object} PingResponse
// @Router /api/v1/ping [get]
func PingHandler(_ *pipeline.Request) pipeline.Outcome {
	return pipeline.Respond(http.StatusOK, PingResponse{Message: "pong"})
}
