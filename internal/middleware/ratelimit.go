package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/logger"
	"github.com/fi-advisor/fi/pkg/response"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimit limits requests per client and route within a fixed window. Counters live in
// the shared cache store so that every instance sees the same budget. Authenticated
// requests are keyed by user, anonymous ones by client IP. Store failures let the request through.
func RateLimit(store cache.Store, maxRequests int, window time.Duration) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		subject := c.GetString(CtxUserIDKey)
		if subject == "" {
			subject = c.ClientIP()
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := rateLimitKeyPrefix + subject + "|" + c.Request.Method + " " + path

		count, ttl, err := store.IncrementWithTTL(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := maxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if int(count) > maxRequests {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
