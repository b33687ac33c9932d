package monitoring

import (
	"sort"
	"time"
)

// Summary surfaces aggregated runtime data for operators.
type Summary struct {
	GeneratedAt   time.Time          `json:"generated_at"`
	StartedAt     time.Time          `json:"started_at"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Maintenance   MaintenanceSummary `json:"maintenance"`
}

type MaintenanceSummary struct {
	Jobs []MaintenanceJobSummary `json:"jobs"`
}

type MaintenanceJobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	ConsecutiveSuccess  uint64        `json:"consecutive_success"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
}

// Snapshot returns a point-in-time summary. Jobs are ordered by name.
func (m *Module) Snapshot() Summary {
	if m == nil {
		return Summary{GeneratedAt: time.Now()}
	}

	m.mu.Lock()
	jobs := make([]MaintenanceJobSummary, 0, len(m.maintenance))
	for name, stats := range m.maintenance {
		jobs = append(jobs, stats.snapshot(name))
	}
	m.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Job < jobs[j].Job })

	now := m.now()
	return Summary{
		GeneratedAt:   now,
		StartedAt:     m.started,
		UptimeSeconds: int64(now.Sub(m.started).Seconds()),
		Maintenance:   MaintenanceSummary{Jobs: jobs},
	}
}
