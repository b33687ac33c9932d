package monitoring

import (
	"strings"
	"sync"
	"time"

	"github.com/fi-advisor/fi/pkg/metrics"
)

// Module owns the health probes and the runtime statistics behind the monitoring summary.
// It is constructed once during bootstrap and passed to the components that report to it.
type Module struct {
	health  *HealthManager
	started time.Time
	now     func() time.Time

	mu          sync.Mutex
	maintenance map[string]*maintenanceStats
}

// NewModule constructs a monitoring module.
func NewModule() *Module {
	return &Module{
		health:      NewHealthManager(),
		started:     time.Now(),
		now:         time.Now,
		maintenance: make(map[string]*maintenanceStats),
	}
}

// Health exposes the health manager responsible for liveness and readiness probes.
func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}

// RecordMaintenanceRun records the completion of a maintenance job.
func (m *Module) RecordMaintenanceRun(job, result, message string, duration time.Duration) {
	if m == nil {
		return
	}
	job = normalizeLabel(job, "unknown")
	result = normalizeLabel(result, "unknown")
	if duration < 0 {
		duration = 0
	}

	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()
	metrics.MaintenanceDuration.WithLabelValues(job).Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.maintenance[job]
	if !ok {
		stats = &maintenanceStats{}
		m.maintenance[job] = stats
	}
	stats.record(m.now(), result, strings.TrimSpace(message), duration)
}

func normalizeLabel(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
