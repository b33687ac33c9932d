package app

import (
	"strings"

	"github.com/fi-advisor/fi/internal/database"
)

// ConnectionConfig converts the database section into database.Open parameters.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:            strings.TrimSpace(c.Path),
		DSN:             strings.TrimSpace(c.DSN),
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		LogQueries:      c.LogQueries,
	}

	switch cfg.Driver {
	case "", "sqlite":
		cfg.Driver = "sqlite"
	case "postgres", "postgresql":
		cfg.Driver = "postgres"
		applyHostAuth(&cfg, c.Postgres)
	case "mysql":
		applyHostAuth(&cfg, c.MySQL)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return cfg
}

func applyHostAuth(cfg *database.Config, auth DBAuthConfig) {
	cfg.Host = strings.TrimSpace(auth.Host)
	cfg.Port = auth.Port
	cfg.Name = strings.TrimSpace(auth.Database)
	cfg.User = strings.TrimSpace(auth.Username)
	cfg.Password = strings.TrimSpace(auth.Password)
}
