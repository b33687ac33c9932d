package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultPostgresPort = 5432

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := postgresURL(cfg)
	if err != nil {
		return nil, err
	}
	// surface malformed settings before gorm hides them behind a dial error
	if _, err := pgconn.ParseConfig(dsn); err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn}), gormConfig(cfg))
}

// postgresURL renders discrete settings as a postgres:// URL. An explicit DSN wins.
func postgresURL(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres: user and database name are required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(cfg.User),
		Host:   net.JoinHostPort(orDefault(cfg.Host, "localhost"), strconv.Itoa(port)),
		Path:   "/" + cfg.Name,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	query := url.Values{"sslmode": {"disable"}}
	for key, value := range cfg.Options {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
