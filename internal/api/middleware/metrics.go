package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/r2gate/internal/metrics"
)

// Metrics records request count, latency and inflight requests. The route
// label is the matched route template so wildcard keys don't explode
// cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(strconv.Itoa(c.Writer.Status()), c.Request.Method, route)
	}
}
