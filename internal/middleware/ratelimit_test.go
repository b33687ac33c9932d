package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/cache"
)

type rateClock struct{ now time.Time }

func (c *rateClock) Now() time.Time { return c.now }

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	clock := &rateClock{now: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clock.Now))

	r := gin.New()
	r.Use(RateLimit(store, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do().Code)
	}

	limited := do()
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, limited.Header().Get("Retry-After"))
	require.Contains(t, limited.Body.String(), "RATE_LIMIT_EXCEEDED")

	clock.now = clock.now.Add(time.Minute + time.Second)
	require.Equal(t, http.StatusOK, do().Code)
}

func TestRateLimitKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.NewMemoryStore()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(CtxUserIDKey, c.GetHeader("X-User"))
		c.Next()
	}, RateLimit(store, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for _, user := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, user)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitDisabledWithoutStore(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
