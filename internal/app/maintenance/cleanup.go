package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fi-advisor/fi/internal/cache"
	"github.com/fi-advisor/fi/pkg/logger"
)

const defaultSchedule = "@every 5m"

// SessionCleaner removes expired and revoked sessions.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StorePurger removes expired entries from a shared cache store.
type StorePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Pruner drops idle rate limiter windows.
type Pruner interface {
	Prune() int
}

// Recorder receives the outcome of every maintenance job.
type Recorder interface {
	RecordMaintenanceRun(job, result, message string, duration time.Duration)
}

// Cleaner coordinates background maintenance: purging expired sessions, sweeping the
// in-process TTL caches, clearing the shared cache store, and pruning idle limiter keys.
type Cleaner struct {
	sessions SessionCleaner
	sweepers []cache.Sweeper
	store    StorePurger
	limiter  Pruner
	recorder Recorder
	cron     *cron.Cron
	schedule string
	log      *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification shared by all jobs.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithSessions enables session cleanup.
func WithSessions(sessions SessionCleaner) Option {
	return func(cleaner *Cleaner) {
		cleaner.sessions = sessions
	}
}

// WithSweepers registers in-process caches to sweep.
func WithSweepers(sweepers ...cache.Sweeper) Option {
	return func(cleaner *Cleaner) {
		for _, s := range sweepers {
			if s != nil {
				cleaner.sweepers = append(cleaner.sweepers, s)
			}
		}
	}
}

// WithStore enables purging of a shared cache store.
func WithStore(store StorePurger) Option {
	return func(cleaner *Cleaner) {
		cleaner.store = store
	}
}

// WithLimiter enables pruning of idle limiter windows.
func WithLimiter(limiter Pruner) Option {
	return func(cleaner *Cleaner) {
		cleaner.limiter = limiter
	}
}

// WithRecorder reports job outcomes, typically to the monitoring module.
func WithRecorder(recorder Recorder) Option {
	return func(cleaner *Cleaner) {
		cleaner.recorder = recorder
	}
}

// NewCleaner constructs a Cleaner. Jobs whose dependency was not supplied are skipped.
func NewCleaner(opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.sessions != nil || len(c.sweepers) > 0 || c.store != nil || c.limiter != nil
}

// Start registers the cleanup job with the cron scheduler and launches it if anything is configured.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", c.schedule, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		errs = multierr.Append(errs, c.run("sessions", func() error {
			removed, err := c.sessions.CleanupExpired(ctx)
			if err == nil && removed > 0 {
				c.log.Debug("sessions purged", zap.Int64("count", removed))
			}
			return err
		}))
	}

	if len(c.sweepers) > 0 {
		_ = c.run("caches", func() error {
			for _, sweeper := range c.sweepers {
				if n := sweeper.PurgeExpired(); n > 0 {
					c.log.Debug("cache swept", zap.String("cache", sweeper.Name()), zap.Int("count", n))
				}
			}
			return nil
		})
	}

	if c.store != nil {
		errs = multierr.Append(errs, c.run("cache_store", func() error {
			removed, err := c.store.PurgeExpired(ctx)
			if err == nil && removed > 0 {
				c.log.Debug("cache store purged", zap.Int64("count", removed))
			}
			return err
		}))
	}

	if c.limiter != nil {
		_ = c.run("limiter", func() error {
			if n := c.limiter.Prune(); n > 0 {
				c.log.Debug("limiter pruned", zap.Int("keys", n))
			}
			return nil
		})
	}

	return errs
}

// run times a job, reports it to the recorder and prefixes its error with the job name.
func (c *Cleaner) run(job string, fn func() error) error {
	start := time.Now()
	err := fn()
	result, message := "success", ""
	if err != nil {
		result, message = "failure", err.Error()
		err = fmt.Errorf("%s: %w", job, err)
	}
	if c.recorder != nil {
		c.recorder.RecordMaintenanceRun(job, result, message, time.Since(start))
	}
	return err
}
