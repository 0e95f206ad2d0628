package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/metrics"
)

// Logging logs every request with latency and status, and feeds the request
// latency histogram.
func Logging(log *logger.Logger, m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.APIRequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
