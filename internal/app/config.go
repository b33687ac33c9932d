package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Fi backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	AI          AIConfig          `mapstructure:"ai"`
	Market      MarketConfig      `mapstructure:"market"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadMB     int           `mapstructure:"max_upload_mb"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	Postgres        DBAuthConfig  `mapstructure:"postgres"`
	MySQL           DBAuthConfig  `mapstructure:"mysql"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes the in-process caches and the shared cache backend.
type CacheConfig struct {
	// MaxEntries bounds each in-process TTL cache; zero keeps them unbounded.
	MaxEntries int              `mapstructure:"max_entries"`
	Redis      RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig configures inbound request throttling and the outbound sliding window.
type RateLimitConfig struct {
	Inbound  InboundRateConfig  `mapstructure:"inbound"`
	Outbound OutboundRateConfig `mapstructure:"outbound"`
}

// InboundRateConfig limits API requests per client and route.
type InboundRateConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// OutboundRateConfig limits calls to external providers.
type OutboundRateConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
	Policy string        `mapstructure:"policy"`
}

// StorageConfig selects where uploaded files are kept.
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
	// EncryptionKey enables at-rest encryption of uploaded files when set.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// S3Config configures an S3 compatible object store.
type S3Config struct {
	Enabled      bool   `mapstructure:"enabled"`
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	PathStyle    bool   `mapstructure:"path_style"`
	CreateBucket bool   `mapstructure:"create_bucket"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT     JWTSettings     `mapstructure:"jwt"`
	Session SessionSettings `mapstructure:"session"`
	Google  GoogleSettings  `mapstructure:"google"`
}

// JWTSettings configures JWT access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// SessionSettings configures refresh tokens and session lifetimes.
type SessionSettings struct {
	RefreshTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	RefreshLength int           `mapstructure:"refresh_token_length"`
}

// GoogleSettings configures Google sign-in. An empty client id disables it.
type GoogleSettings struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// AIConfig configures the language model providers.
type AIConfig struct {
	Gemini ModelConfig `mapstructure:"gemini"`
	OpenAI ModelConfig `mapstructure:"openai"`
}

// ModelConfig configures one model provider. An empty API key disables it.
type ModelConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// MarketConfig configures market data, news, search and language providers.
type MarketConfig struct {
	Timeout time.Duration  `mapstructure:"timeout"`
	Yahoo   YahooConfig    `mapstructure:"yahoo"`
	MFAPI   EndpointConfig `mapstructure:"mfapi"`
	NewsAPI NewsAPIConfig  `mapstructure:"newsapi"`
	Search  SearchConfig   `mapstructure:"search"`
	NLP     LanguageConfig `mapstructure:"nlp"`
}

// YahooConfig configures the Yahoo Finance client.
type YahooConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// RequestsPerSecond paces requests to the host; zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// EndpointConfig holds a provider base URL.
type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// NewsAPIConfig configures NewsAPI.
type NewsAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// SearchConfig configures Google Custom Search.
type SearchConfig struct {
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
}

// LanguageConfig configures Google Cloud Natural Language.
type LanguageConfig struct {
	APIKey          string `mapstructure:"api_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig schedules background cleanup.
type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// legacyEnv maps configuration keys to the plain environment variable names
// deployments already use, next to the FI_ prefixed form.
var legacyEnv = map[string]string{
	"server.port":                 "PORT",
	"ai.gemini.api_key":           "GEMINI_API_KEY",
	"ai.openai.api_key":           "OPENAI_API_KEY",
	"market.newsapi.api_key":      "NEWS_API_KEY",
	"market.search.api_key":       "GOOGLE_SEARCH_API_KEY",
	"market.search.engine_id":     "GOOGLE_SEARCH_ENGINE_ID",
	"market.nlp.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
	"auth.google.client_id":       "GOOGLE_CLIENT_ID",
	"auth.google.client_secret":   "GOOGLE_CLIENT_SECRET",
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// Variables from .env in the working directory are loaded first when the file exists.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("FI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "FI_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/fi.sqlite")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("ratelimit.inbound.enabled", true)
	v.SetDefault("ratelimit.inbound.requests", 100)
	v.SetDefault("ratelimit.inbound.window", "1m")
	v.SetDefault("ratelimit.outbound.limit", 10)
	v.SetDefault("ratelimit.outbound.window", "60s")
	v.SetDefault("ratelimit.outbound.policy", "reject")

	v.SetDefault("storage.s3.enabled", false)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "fi-documents")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.create_bucket", true)

	v.SetDefault("auth.jwt.issuer", "fi")
	v.SetDefault("auth.jwt.access_token_ttl", "15m")
	v.SetDefault("auth.session.refresh_token_ttl", "720h") // 30 days
	v.SetDefault("auth.session.refresh_token_length", 48)

	v.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.openai.model", "gpt-4o")

	v.SetDefault("market.timeout", "15s")
	v.SetDefault("market.yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.yahoo.requests_per_second", 2)
	v.SetDefault("market.mfapi.base_url", "https://api.mfapi.in")
	v.SetDefault("market.newsapi.base_url", "https://newsapi.org")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@every 5m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
