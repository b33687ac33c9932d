package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by method (password|google) and result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "result"},
	)

	// ActiveSessions tracks refresh sessions that have not been revoked or expired.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fi_active_sessions",
			Help: "Number of active refresh sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fi_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CacheLookups counts TTL cache lookups by cache name and result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"},
	)

	// CacheEntries tracks live entries per cache after each sweep.
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fi_cache_entries",
			Help: "Number of entries held by a cache",
		},
		[]string{"cache"},
	)

	// OutboundRateDecisions counts sliding window decisions (allowed|rejected|waited).
	OutboundRateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_outbound_rate_decisions_total",
			Help: "Outbound rate limiter decisions",
		},
		[]string{"key", "decision"},
	)

	// ExternalLatency measures calls to third-party providers.
	ExternalLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fi_external_call_seconds",
			Help:    "Latency of calls to external providers",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "result"},
	)

	// DocumentFallbacks counts operations served by the in-memory document store.
	DocumentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_document_store_fallbacks_total",
			Help: "Document operations that fell back to the local store",
		},
		[]string{"operation"},
	)

	// AdvisorFallbacks counts AI responses replaced by default payloads.
	AdvisorFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_advisor_fallbacks_total",
			Help: "AI operations that returned a default payload",
		},
		[]string{"operation"},
	)

	// MaintenanceRuns counts background maintenance runs by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fi_maintenance_runs_total",
			Help: "Maintenance job executions",
		},
		[]string{"job", "result"},
	)

	// MaintenanceDuration measures maintenance job durations.
	MaintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fi_maintenance_duration_seconds",
			Help:    "Maintenance job duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"job"},
	)
)
