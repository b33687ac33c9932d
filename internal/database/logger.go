package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fi-advisor/fi/pkg/logger"
)

const defaultSlowThreshold = 500 * time.Millisecond

// zapWriter forwards gorm log lines to the module logger.
type zapWriter struct {
	log *zap.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Info(fmt.Sprintf(format, args...))
}

func newGormLogger(cfg Config) gormlogger.Interface {
	threshold := cfg.SlowThreshold
	if threshold <= 0 {
		threshold = defaultSlowThreshold
	}

	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}

	return gormlogger.New(zapWriter{log: logger.WithModule("database")}, gormlogger.Config{
		SlowThreshold:             threshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
