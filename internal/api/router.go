package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fi-advisor/fi/internal/app"
	iauth "github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/internal/handlers"
	"github.com/fi-advisor/fi/internal/middleware"
	"github.com/fi-advisor/fi/internal/monitoring"
	"github.com/fi-advisor/fi/internal/services"
)

// Deps carries everything the HTTP layer needs. Monitoring and RateStore are optional.
type Deps struct {
	Config     *app.Config
	JWT        *iauth.JWTService
	Sessions   *iauth.SessionService
	Users      *services.UserService
	Documents  *services.DocumentService
	Market     *services.MarketService
	Advisor    *services.AdvisorService
	Monitoring *monitoring.Module
	RateStore  cache.Store
}

func (d Deps) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Users == nil:
		return fmt.Errorf("user service must be provided")
	case d.Documents == nil:
		return fmt.Errorf("document service must be provided")
	case d.Market == nil:
		return fmt.Errorf("market service must be provided")
	case d.Advisor == nil:
		return fmt.Errorf("advisor service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins...))

	registerHealthRoutes(r, cfg, deps.Monitoring)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	var limit gin.HandlerFunc
	if inbound := cfg.RateLimit.Inbound; inbound.Enabled && deps.RateStore != nil {
		limit = middleware.RateLimit(deps.RateStore, inbound.Requests, inbound.Window)
	}

	public := r.Group("/api")
	protected := r.Group("/api")
	protected.Use(middleware.Auth(deps.JWT))
	if limit != nil {
		public.Use(limit)
		// after Auth so that authenticated budgets are keyed by user
		protected.Use(limit)
	}

	maxUpload := int64(cfg.Server.MaxUploadMB) << 20

	registerAuthRoutes(public, protected, handlers.NewAuthHandler(deps.Users, deps.Sessions))
	registerProfileRoutes(protected, handlers.NewProfileHandler(deps.Users, deps.Documents, deps.Advisor, deps.Sessions))
	registerDocumentRoutes(protected, handlers.NewDocumentHandler(deps.Documents, maxUpload))
	registerMarketRoutes(protected, handlers.NewMarketHandler(deps.Market))
	registerRecommendationRoutes(protected, handlers.NewRecommendationHandler(deps.Advisor))
	registerChatRoutes(protected, handlers.NewChatHandler(deps.Advisor))
	registerMonitoringRoutes(protected, handlers.NewMonitoringHandler(deps.Monitoring, cfg))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
