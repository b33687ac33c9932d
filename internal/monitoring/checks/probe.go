// Package checks holds the readiness probes for the server's dependencies.
package checks

import (
	"context"
	"time"

	"github.com/fi-advisor/fi/internal/monitoring"
)

// Pinger is any dependency that can answer a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// timed runs fn under a deadline and turns its error into a probe result.
// A non-empty detail string is attached to successful probes.
func timed(ctx context.Context, component string, timeout time.Duration, fn func(context.Context) (string, error)) monitoring.ProbeResult {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	details, err := fn(probeCtx)
	result := monitoring.ResultFromError(component, err, time.Since(start))
	if err == nil {
		result.Details = details
	}
	return result
}

func orTimeout(provided, fallback time.Duration) time.Duration {
	if provided > 0 {
		return provided
	}
	return fallback
}
