package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fi-advisor/fi/internal/monitoring"
)

// HealthHandler serves the probe endpoints. With no manager, /health is a
// plain ping and the detailed probes answer 404.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Enabled reports whether detailed probes are wired.
func (h *HealthHandler) Enabled() bool {
	return h != nil && h.manager != nil
}

// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	if !h.Enabled() {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": monitoring.StatusUp, "checked_at": time.Now().UTC()})
		return
	}
	report := h.manager.EvaluateReadiness(c.Request.Context())
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checked_at": time.Now().UTC(),
	})
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	if !h.Enabled() {
		probesDisabled(c)
		return
	}
	writeReport(c, h.manager.EvaluateLiveness(c.Request.Context()))
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.Enabled() {
		probesDisabled(c)
		return
	}
	writeReport(c, h.manager.EvaluateReadiness(c.Request.Context()))
}

func probesDisabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "status": "disabled"})
}

func reportStatus(report monitoring.HealthReport) int {
	if report.Success {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeReport(c *gin.Context, report monitoring.HealthReport) {
	c.JSON(reportStatus(report), gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}
