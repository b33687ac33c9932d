package checks

import (
	"context"
	"time"

	"github.com/fi-advisor/fi/internal/monitoring"
)

// Blob probes the object storage bucket holding uploaded files. Uploads fall
// back to the in-memory document store when it is down, so it is optional.
func Blob(storage Pinger, timeout time.Duration) monitoring.Check {
	timeout = orTimeout(timeout, 3*time.Second)
	return monitoring.NewOptionalCheck("storage", func(ctx context.Context) monitoring.ProbeResult {
		if storage == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "object storage not configured, files kept in memory"}
		}
		return timed(ctx, "storage", timeout, func(ctx context.Context) (string, error) {
			return "", storage.Ping(ctx)
		})
	})
}
