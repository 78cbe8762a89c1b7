package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/algorave/apikit/internal/metrics"
)

// records in-flight count, status and latency per matched route
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.IncInFlight()
		defer m.DecInFlight()

		c.Next()

		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
