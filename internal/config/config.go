package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StoreMongo    = "mongo"
	StoreSurreal  = "surreal"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// posts store, one of: mongo, surreal, postgres, memory
	Store string `toml:"store"`
	// mongo, uri comes from EDUBLOG_MONGO_URI when set
	MongoURI    string `toml:"mongo_uri"`
	MongoDBName string `toml:"mongo_db_name"`
	// surrealdb, password comes from EDUBLOG_SURREAL_PASS
	SurrealURL       string `toml:"surreal_url"`
	SurrealNamespace string `toml:"surreal_ns"`
	SurrealDatabase  string `toml:"surreal_db"`
	SurrealUser      string `toml:"surreal_user"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis, used for rate limiting
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	RateLimitAllowedPerMin int      `toml:"rate_limit_allowed_per_min"`
	CorsAllowedOrigins     []string `toml:"cors_allowed_origins"`
	MaxBodyBytes           int64    `toml:"max_body_bytes"`
	DraftsListingEnabled   bool     `toml:"drafts_listing_enabled"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo, StoreSurreal, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store: [%s]", c.Store)
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
	Test        *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "test", "testing":
		cfg = t.Test
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	return cfg, nil
}

// Load reads the TOML file, picks the section for the given env and applies env var overrides.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults(env)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Store == "" {
		c.Store = StoreMongo
	}
	if c.MongoDBName == "" {
		c.MongoDBName = "blogging_app"
	}
	if c.RateLimitAllowedPerMin <= 0 {
		c.RateLimitAllowedPerMin = 100
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
}

func (c *Config) applyEnvOverrides() error {
	if mongoURI := os.Getenv("EDUBLOG_MONGO_URI"); mongoURI != "" {
		c.MongoURI = mongoURI
	}
	if store := os.Getenv("EDUBLOG_STORE"); store != "" {
		c.Store = store
	}
	if portStr := os.Getenv("EDUBLOG_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid EDUBLOG_PORT [%s]: %w", portStr, err)
		}
		c.Port = port
	}
	return nil
}
