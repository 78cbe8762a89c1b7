package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/internal/envelope"
)

// builds the CORS handler for the configured origins; "*" allows any origin
// preflight requests are answered here and never reach the pipeline
func CORS(origins []string) (gin.HandlerFunc, error) {
	cfg := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", envelope.HeaderCorrelationID},
		ExposeHeaders: []string{envelope.HeaderCorrelationID, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cors config: %w", err)
	}

	return cors.New(cfg), nil
}
