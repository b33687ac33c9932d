package checks

import (
	"context"
	"strings"
	"time"

	"github.com/fi-advisor/fi/internal/monitoring"
)

const defaultMaintenanceMaxAge = time.Hour

// Snapshotter exposes the monitoring summary.
type Snapshotter interface {
	Snapshot() monitoring.Summary
}

var severity = map[monitoring.ProbeStatus]int{
	monitoring.StatusUp:       0,
	monitoring.StatusDegraded: 1,
	monitoring.StatusDown:     2,
}

// Maintenance reports down while any cleanup job is failing and degraded when
// a job has not run within maxAge (one hour when zero).
func Maintenance(source Snapshotter, maxAge time.Duration) monitoring.Check {
	maxAge = orTimeout(maxAge, defaultMaintenanceMaxAge)

	return monitoring.NewOptionalCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		return timedResult(func() monitoring.ProbeResult {
			if source == nil {
				return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
			}
			summary := source.Snapshot()
			if len(summary.Maintenance.Jobs) == 0 {
				return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance runs yet"}
			}

			result := monitoring.ProbeResult{Status: monitoring.StatusUp}
			var notes []string
			for _, job := range summary.Maintenance.Jobs {
				status, note := jobVerdict(job, summary.GeneratedAt, maxAge)
				if note == "" {
					continue
				}
				notes = append(notes, job.Job+": "+note)
				if severity[status] > severity[result.Status] {
					result.Status = status
				}
			}
			result.Details = strings.Join(notes, "; ")
			return result
		})
	})
}

func jobVerdict(job monitoring.MaintenanceJobSummary, now time.Time, maxAge time.Duration) (monitoring.ProbeStatus, string) {
	if job.ConsecutiveFailures > 0 {
		if msg := strings.TrimSpace(job.LastError); msg != "" {
			return monitoring.StatusDown, msg
		}
		return monitoring.StatusDown, "consecutive failures"
	}
	if !job.LastRunAt.IsZero() && now.Sub(job.LastRunAt) > maxAge {
		return monitoring.StatusDegraded, "stale run " + job.LastRunAt.UTC().Format(time.RFC3339)
	}
	return monitoring.StatusUp, ""
}

func timedResult(fn func() monitoring.ProbeResult) monitoring.ProbeResult {
	start := time.Now()
	result := fn()
	result.Duration = time.Since(start)
	return result
}
