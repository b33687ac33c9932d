package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDegraded ProbeStatus = "degraded"
	StatusDown     ProbeStatus = "down"
)

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component string        `json:"component"`
	Status    ProbeStatus   `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
	Optional  bool          `json:"optional,omitempty"`
}

// HealthReport aggregates probe results for a liveness or readiness evaluation.
type HealthReport struct {
	Success bool          `json:"success"`
	Status  ProbeStatus   `json:"status"`
	Checks  []ProbeResult `json:"checks"`
}

// Check is a named probe. An optional check guards a dependency the server
// can run without: when it is down the report degrades instead of failing.
type Check struct {
	Name     string
	Optional bool
	Run      func(ctx context.Context) ProbeResult
}

// NewCheck constructs a required check.
func NewCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	return Check{Name: name, Run: fn}
}

// NewOptionalCheck constructs a check whose failure only degrades the report.
func NewOptionalCheck(name string, fn func(ctx context.Context) ProbeResult) Check {
	return Check{Name: name, Optional: true, Run: fn}
}

// HealthManager holds the registered liveness and readiness probes. Probes
// of one evaluation run concurrently; results keep registration order.
type HealthManager struct {
	mu        sync.RWMutex
	liveness  []Check
	readiness []Check
}

func NewHealthManager() *HealthManager {
	return &HealthManager{}
}

func (m *HealthManager) RegisterLiveness(check Check) {
	m.register(&m.liveness, check)
}

func (m *HealthManager) RegisterReadiness(check Check) {
	m.register(&m.readiness, check)
}

func (m *HealthManager) register(into *[]Check, check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	*into = append(*into, check)
	m.mu.Unlock()
}

func (m *HealthManager) EvaluateLiveness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.snapshot(&m.liveness))
}

func (m *HealthManager) EvaluateReadiness(ctx context.Context) HealthReport {
	return m.evaluate(ctx, m.snapshot(&m.readiness))
}

func (m *HealthManager) snapshot(from *[]Check) []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Check(nil), (*from)...)
}

func (m *HealthManager) evaluate(ctx context.Context, checks []Check) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]ProbeResult, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	return summarize(results)
}

// summarize folds probe results: a required probe that is down fails the
// report; anything else short of up only degrades it.
func summarize(results []ProbeResult) HealthReport {
	report := HealthReport{Success: true, Status: StatusUp, Checks: results}
	for _, result := range results {
		if result.Status == StatusDown && !result.Optional {
			report.Success = false
			report.Status = StatusDown
			continue
		}
		if result.Status != StatusUp && report.Status == StatusUp {
			report.Status = StatusDegraded
		}
	}
	return report
}

func runCheck(ctx context.Context, check Check) (result ProbeResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = ProbeResult{Status: StatusDown, Details: panicDetails(rec)}
		}
		result.Component = check.Name
		result.Optional = check.Optional
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
	}()

	if check.Run == nil {
		return ProbeResult{Status: StatusDown, Details: "probe not implemented"}
	}
	return check.Run(ctx)
}

func panicDetails(rec any) string {
	switch v := rec.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

// ResultFromError converts a probe error into a ProbeResult. Timeouts and
// cancellations degrade rather than fail.
func ResultFromError(component string, err error, duration time.Duration) ProbeResult {
	result := ProbeResult{Component: component, Status: StatusUp, Duration: max(duration, 0)}
	if err == nil {
		return result
	}
	result.Details = err.Error()
	result.Status = StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		result.Status = StatusDegraded
	}
	return result
}
