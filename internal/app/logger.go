package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/fi-advisor/fi/pkg/logger"
)

// ConfigureLogging installs the process logger from the server settings.
// An empty level means info; format is "json" (default) or "console".
func ConfigureLogging(server ServerConfig) error {
	level := strings.ToLower(strings.TrimSpace(server.LogLevel))
	if level == "" {
		level = zapcore.InfoLevel.String()
	}
	if _, err := zapcore.ParseLevel(level); err != nil {
		return fmt.Errorf("server.log_level: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(server.LogFormat))
	switch format {
	case "", "json":
		format = "json"
	case "console":
	default:
		return fmt.Errorf("server.log_format must be json or console (current: %q)", server.LogFormat)
	}
	return logger.InitWithFormat(level, format)
}
