package app

import (
	"strings"
	"time"

	"github.com/fi-advisor/fi/internal/cache"
)

const defaultRedisTimeout = 3 * time.Second

// RedisClientConfig maps the cache.redis section onto the client options,
// trimming stray whitespace that env files tend to carry.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  timeout,
	}
}
