package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fi-advisor/fi/pkg/metrics"
)

// Defaults applied when a zero Config is supplied.
const (
	DefaultLimit  = 10
	DefaultWindow = 60 * time.Second
	DefaultKey    = "global"
)

// ErrRateLimited is returned by Acquire when the policy rejects a request.
var ErrRateLimited = errors.New("ratelimit: limit exceeded")

// Policy decides what Acquire does when a key is at its limit.
type Policy string

const (
	// PolicyReject fails immediately with ErrRateLimited.
	PolicyReject Policy = "reject"
	// PolicyWait blocks until the oldest admission leaves the window.
	PolicyWait Policy = "wait"
)

// ParsePolicy maps a configuration value to a Policy, defaulting to PolicyReject.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyWait:
		return PolicyWait, nil
	default:
		return "", fmt.Errorf("ratelimit: unknown policy %q", value)
	}
}

// Config configures a SlidingWindow.
type Config struct {
	Limit  int
	Window time.Duration
	Policy Policy
	Clock  func() time.Time
}

// SlidingWindow is a sliding-window-log limiter. For each key it keeps the admission
// timestamps of the last window; a request is admitted while fewer than Limit remain.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	policy  Policy
	now     func() time.Time
	windows map[string][]time.Time

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindow builds a limiter, filling unset fields with the defaults.
func NewSlidingWindow(cfg Config) *SlidingWindow {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyReject
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &SlidingWindow{
		limit:   cfg.Limit,
		window:  cfg.Window,
		policy:  cfg.Policy,
		now:     cfg.Clock,
		windows: make(map[string][]time.Time),
		sleep:   sleepContext,
	}
}

// Check admits a request under the default key.
func (l *SlidingWindow) Check() bool {
	return l.CheckKey(DefaultKey)
}

// CheckKey drops timestamps older than the window and admits the request when fewer
// than Limit remain, recording the admission. A rejected request leaves state untouched.
func (l *SlidingWindow) CheckKey(key string) bool {
	allowed, _ := l.admit(key)
	decision := "allowed"
	if !allowed {
		decision = "rejected"
	}
	metrics.OutboundRateDecisions.WithLabelValues(key, decision).Inc()
	return allowed
}

// Acquire admits a request for key according to the configured policy.
func (l *SlidingWindow) Acquire(ctx context.Context, key string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	waited := false
	for {
		allowed, retryIn := l.admit(key)
		if allowed {
			decision := "allowed"
			if waited {
				decision = "waited"
			}
			metrics.OutboundRateDecisions.WithLabelValues(key, decision).Inc()
			return nil
		}
		if l.policy != PolicyWait {
			metrics.OutboundRateDecisions.WithLabelValues(key, "rejected").Inc()
			return ErrRateLimited
		}
		if err := l.sleep(ctx, retryIn); err != nil {
			return err
		}
		waited = true
	}
}

// Remaining reports how many admissions key has left in the current window.
func (l *SlidingWindow) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := l.pruneLocked(key, l.now())
	return l.limit - len(live)
}

// Policy returns the configured policy.
func (l *SlidingWindow) Policy() Policy {
	return l.policy
}

// Prune drops keys whose timestamps have all left the window and returns how many were removed.
func (l *SlidingWindow) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key := range l.windows {
		if len(l.pruneLocked(key, now)) == 0 {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

func (l *SlidingWindow) admit(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	live := l.pruneLocked(key, now)
	if len(live) < l.limit {
		l.windows[key] = append(live, now)
		return true, 0
	}
	// The oldest timestamp leaves the window once now - oldest >= window.
	retryIn := live[0].Add(l.window).Sub(now)
	if retryIn <= 0 {
		retryIn = time.Millisecond
	}
	return false, retryIn
}

// pruneLocked keeps timestamps strictly newer than now - window.
func (l *SlidingWindow) pruneLocked(key string, now time.Time) []time.Time {
	timestamps := l.windows[key]
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(timestamps) && !timestamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		timestamps = append(timestamps[:0:0], timestamps[idx:]...)
		l.windows[key] = timestamps
	}
	return timestamps
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
