package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRouteLabelUsesTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen []string
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		seen = append(seen, routeLabel(c))
	})
	r.Use(Metrics())
	r.GET("/api/documents/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/api/documents/a", "/api/documents/b", "/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, []string{"/api/documents/:id", "/api/documents/:id", unmatchedRoute}, seen)
}
