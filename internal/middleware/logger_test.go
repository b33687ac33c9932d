package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fi-advisor/fi/pkg/logger"
)

func TestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, logger.Init("debug"))

	r := gin.New()
	r.Use(Logger())
	r.GET("/api/market/search", func(c *gin.Context) {
		c.Set(CtxUserIDKey, "user-1")
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/market/search?q=infy", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, accessLevel("/api/chat", 502))
	assert.Equal(t, zapcore.WarnLevel, accessLevel("/api/profile", 401))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/health", 200))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/health/ready", 200))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/healthz", 200))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/api/documents", 201))
}
