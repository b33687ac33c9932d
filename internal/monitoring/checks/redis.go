package checks

import (
	"context"
	"time"

	"github.com/fi-advisor/fi/internal/monitoring"
)

// Redis probes the shared cache. It is optional: the database-backed cache
// takes over while Redis is unreachable.
func Redis(client Pinger, enabled bool, timeout time.Duration) monitoring.Check {
	timeout = orTimeout(timeout, 2*time.Second)
	return monitoring.NewOptionalCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		switch {
		case !enabled:
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		case client == nil:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable, using database cache"}
		}
		return timed(ctx, "redis", timeout, func(ctx context.Context) (string, error) {
			return "", client.Ping(ctx)
		})
	})
}
