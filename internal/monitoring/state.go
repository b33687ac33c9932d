package monitoring

import "time"

type maintenanceStats struct {
	lastStatus           string
	lastError            string
	lastRun              time.Time
	lastDuration         time.Duration
	lastSuccess          time.Time
	consecutiveFailures  uint64
	consecutiveSuccesses uint64
	totalRuns            uint64
}

func (m *maintenanceStats) record(now time.Time, result, message string, duration time.Duration) {
	m.lastStatus = result
	m.lastError = message
	m.lastRun = now
	m.lastDuration = duration
	m.totalRuns++

	if result == "success" {
		m.consecutiveFailures = 0
		m.consecutiveSuccesses++
		m.lastSuccess = now
		return
	}
	m.consecutiveFailures++
	m.consecutiveSuccesses = 0
}

func (m *maintenanceStats) snapshot(job string) MaintenanceJobSummary {
	return MaintenanceJobSummary{
		Job:                 job,
		LastStatus:          m.lastStatus,
		LastRunAt:           m.lastRun,
		LastDuration:        m.lastDuration,
		LastError:           m.lastError,
		ConsecutiveFailures: m.consecutiveFailures,
		ConsecutiveSuccess:  m.consecutiveSuccesses,
		LastSuccessAt:       m.lastSuccess,
		TotalRuns:           m.totalRuns,
	}
}
