package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/app"
	"github.com/fi-advisor/fi/internal/monitoring"
	"github.com/fi-advisor/fi/pkg/response"
)

type prometheusInfo struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

type monitoringSummary struct {
	Summary    monitoring.Summary `json:"summary"`
	Prometheus prometheusInfo     `json:"prometheus"`
}

// MonitoringHandler serves the operator summary: uptime, maintenance job
// history and where metrics are scraped.
type MonitoringHandler struct {
	module     *monitoring.Module
	prometheus prometheusInfo
}

// NewMonitoringHandler returns nil when neither health checks nor Prometheus
// are enabled, which leaves the route unregistered.
func NewMonitoringHandler(module *monitoring.Module, cfg *app.Config) *MonitoringHandler {
	if module == nil || cfg == nil {
		return nil
	}
	mon := cfg.Monitoring
	if !mon.Health.Enabled && !mon.Prometheus.Enabled {
		return nil
	}

	endpoint := strings.TrimSpace(mon.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	return &MonitoringHandler{
		module:     module,
		prometheus: prometheusInfo{Enabled: mon.Prometheus.Enabled, Endpoint: endpoint},
	}
}

// GET /api/monitoring/summary
func (h *MonitoringHandler) Summary(c *gin.Context) {
	response.Success(c, http.StatusOK, monitoringSummary{
		Summary:    h.module.Snapshot(),
		Prometheus: h.prometheus,
	})
}
