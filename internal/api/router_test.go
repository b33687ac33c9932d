package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/app"
	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/database/testutil"
	"github.com/fi-advisor/fi/internal/docstore"
	"github.com/fi-advisor/fi/internal/services"
)

func newTestDeps(t *testing.T, cfg *app.Config) Deps {
	t.Helper()

	db := testutil.NewDB(t)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-secret", Issuer: "test", AccessTokenTTL: 15 * time.Minute})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)
	users, err := services.NewUserService(db, nil)
	require.NoError(t, err)
	documents, err := services.NewDocumentService(db, nil, docstore.New(), nil)
	require.NoError(t, err)
	market := services.NewMarketService(services.MarketDeps{})
	advisor, err := services.NewAdvisorService(services.AdvisorDeps{DB: db, Users: users, Documents: documents, Market: market})
	require.NoError(t, err)

	return Deps{
		Config:    cfg,
		JWT:       jwtSvc,
		Sessions:  sessions,
		Users:     users,
		Documents: documents,
		Market:    market,
		Advisor:   advisor,
	}
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, err := NewRouter(newTestDeps(t, &app.Config{}))
	require.NoError(t, err)

	// without a health manager /health degrades to a plain ping
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/health/ready").Code)

	for _, path := range []string{"/api/auth/session", "/api/profile", "/api/documents", "/api/market/news", "/api/recommendations"} {
		require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, path).Code, path)
	}

	missing := serve(router, http.MethodGet, "/api/does-not-exist")
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &app.Config{Monitoring: app.MonitoringConfig{
		Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
	}}
	router, err := NewRouter(newTestDeps(t, cfg))
	require.NoError(t, err)

	// Trigger a request to generate metrics
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)

	metrics := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	require.True(t, strings.Contains(metrics.Body.String(), `fi_api_latency_seconds_count{method="GET",path="/health",status="200"}`),
		"metrics output missing latency series")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router, err := NewRouter(newTestDeps(t, &app.Config{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/metrics").Code)
}

func TestRouter_RequiresDependencies(t *testing.T) {
	deps := newTestDeps(t, &app.Config{})

	missingConfig := deps
	missingConfig.Config = nil
	_, err := NewRouter(missingConfig)
	require.Error(t, err)

	missingAdvisor := deps
	missingAdvisor.Advisor = nil
	_, err = NewRouter(missingAdvisor)
	require.ErrorContains(t, err, "advisor")
}
