package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/app"
	"github.com/fi-advisor/fi/internal/handlers"
	"github.com/fi-advisor/fi/internal/monitoring"
)

// registerHealthRoutes mounts the probes at the root for load balancers and
// under /api for clients that only reach the API prefix.
func registerHealthRoutes(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	var manager *monitoring.HealthManager
	if cfg.Monitoring.Health.Enabled {
		manager = mon.Health()
	}
	handler := handlers.NewHealthHandler(manager)

	for _, router := range []gin.IRouter{r, r.Group("/api")} {
		router.GET("/health", handler.Overall)
		router.GET("/health/live", handler.Live)
		router.GET("/health/ready", handler.Ready)
	}
}
