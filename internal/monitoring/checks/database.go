package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/monitoring"
)

// Database probes the primary database. Accounts and profiles cannot be
// served without it, so the check is required.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	timeout = orTimeout(timeout, 2*time.Second)
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		return timed(ctx, "database", timeout, func(ctx context.Context) (string, error) {
			sqlDB, err := db.DB()
			if err != nil {
				return "", err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return "", err
			}
			stats := sqlDB.Stats()
			return fmt.Sprintf("%s: %d open, %d in use", db.Dialector.Name(), stats.OpenConnections, stats.InUse), nil
		})
	})
}
