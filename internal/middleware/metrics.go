package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// scanners cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

// Metrics observes request latency labelled by method, route template and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.APILatency.
			WithLabelValues(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
