package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/fi-advisor/fi/internal/ratelimit"
)

const minEncryptionKeyBytes = 16

// Validate reports configuration combinations the server cannot start with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (current: %d)", c.Server.Port)
	}

	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	if c.RateLimit.Outbound.Limit <= 0 {
		return fmt.Errorf("ratelimit.outbound.limit must be positive (current: %d)", c.RateLimit.Outbound.Limit)
	}
	if c.RateLimit.Outbound.Window <= 0 {
		return errors.New("ratelimit.outbound.window must be positive")
	}
	if _, err := ratelimit.ParsePolicy(c.RateLimit.Outbound.Policy); err != nil {
		return fmt.Errorf("ratelimit.outbound.policy: %w", err)
	}

	if c.Storage.EncryptionEnabled() {
		if n := len(c.Storage.EncryptionKeyBytes()); n < minEncryptionKeyBytes {
			return fmt.Errorf("storage.encryption_key must decode to at least %d bytes (current: %d)", minEncryptionKeyBytes, n)
		}
	}

	if c.Storage.S3.Enabled {
		if strings.TrimSpace(c.Storage.S3.Endpoint) == "" || strings.TrimSpace(c.Storage.S3.Bucket) == "" {
			return errors.New("storage.s3 requires endpoint and bucket when enabled")
		}
	}

	if c.Maintenance.Enabled {
		if _, err := cron.ParseStandard(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("maintenance.schedule: %w", err)
		}
	}

	return nil
}
