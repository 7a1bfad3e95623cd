package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a1gato/olimpiad/internal/service"
)

// Metrics observes every request's method, route template and latency. The
// route template keeps label cardinality bounded; unmatched paths fall back
// to the raw URL.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
