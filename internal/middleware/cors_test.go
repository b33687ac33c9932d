package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins...))
	r.GET("/api/market/overview", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/market/overview", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWildcard(t *testing.T) {
	r := newCORSRouter()

	preflight := corsRequest(r, http.MethodOptions, "https://app.example.com")
	require.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "*", preflight.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, preflight.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	get := corsRequest(r, http.MethodGet, "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "*", get.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowList(t *testing.T) {
	r := newCORSRouter("https://fi.example.com/", " ")

	allowed := corsRequest(r, http.MethodGet, "https://fi.example.com")
	require.Equal(t, http.StatusOK, allowed.Code)
	assert.Equal(t, "https://fi.example.com", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", allowed.Header().Get("Vary"))

	foreign := corsRequest(r, http.MethodGet, "https://evil.example.com")
	require.Equal(t, http.StatusOK, foreign.Code)
	assert.Empty(t, foreign.Header().Get("Access-Control-Allow-Origin"))
}
