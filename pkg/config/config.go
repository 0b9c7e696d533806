// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Lite engine, Search, Router, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Lite     LiteConfig     `yaml:"lite"`
	Search   SearchConfig   `yaml:"search"`
	Router   RouterConfig   `yaml:"router"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AdminToken      string        `yaml:"adminToken"`
}

// PostgresConfig holds PostgreSQL connection parameters for the catalog
// database.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CatalogEvents string `yaml:"catalogEvents"`
}

// RedisConfig holds Redis connection parameters for the shared index cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// Index size presets. The numeric value is the maximum number of catalog
// items fetched per build; zero means no limit.
const (
	IndexSizeSmall     = "small"
	IndexSizeMedium    = "medium"
	IndexSizeLarge     = "large"
	IndexSizeUnbounded = "unbounded"
)

var indexSizeLimits = map[string]int{
	IndexSizeSmall:     500,
	IndexSizeMedium:    1000,
	IndexSizeLarge:     5000,
	IndexSizeUnbounded: 0,
}

// IndexSizeLimit resolves a size preset to its item limit.
func IndexSizeLimit(size string) (int, bool) {
	limit, ok := indexSizeLimits[size]
	return limit, ok
}

// IndexSizeLimits returns the item limit of every known preset.
func IndexSizeLimits() []int {
	return []int{
		indexSizeLimits[IndexSizeSmall],
		indexSizeLimits[IndexSizeMedium],
		indexSizeLimits[IndexSizeLarge],
		indexSizeLimits[IndexSizeUnbounded],
	}
}

// LiteConfig controls the local lite search engine: index size, cache
// lifetime, rebuild schedule and the stopword/synonym overrides.
type LiteConfig struct {
	IndexSize       string              `yaml:"indexSize"`
	CacheBackend    string              `yaml:"cacheBackend"`
	CacheTTL        time.Duration       `yaml:"cacheTTL"`
	RebuildInterval time.Duration       `yaml:"rebuildInterval"`
	BuildWorkers    int                 `yaml:"buildWorkers"`
	Stopwords       []string            `yaml:"stopwords"`
	Synonyms        map[string][]string `yaml:"synonyms"`
}

// Limit returns the item limit for the configured index size. Unknown
// presets resolve to the medium limit; Validate reports them.
func (l LiteConfig) Limit() int {
	if limit, ok := IndexSizeLimit(l.IndexSize); ok {
		return limit
	}
	return indexSizeLimits[IndexSizeMedium]
}

// SearchConfig controls query result limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxResults   int `yaml:"maxResults"`
}

// Search backend modes.
const (
	ModeLite    = "lite"
	ModeHosted  = "hosted"
	ModeManaged = "managed"
)

// RouterConfig selects the active search backend.
type RouterConfig struct {
	Mode           string        `yaml:"mode"`
	HostedURL      string        `yaml:"hostedUrl"`
	ManagedURL     string        `yaml:"managedUrl"`
	Timeout        time.Duration `yaml:"timeout"`
	FallbackToLite bool          `yaml:"fallbackToLite"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, ok := IndexSizeLimit(c.Lite.IndexSize); !ok {
		err = multierror.Append(err, fmt.Errorf("lite.indexSize %q is not one of small, medium, large, unbounded", c.Lite.IndexSize))
	}
	switch c.Lite.CacheBackend {
	case "memory", "redis":
	default:
		err = multierror.Append(err, fmt.Errorf("lite.cacheBackend %q must be memory or redis", c.Lite.CacheBackend))
	}
	if c.Lite.CacheTTL <= 0 {
		err = multierror.Append(err, errors.New("lite.cacheTTL must be positive"))
	}
	if c.Lite.RebuildInterval <= 0 {
		err = multierror.Append(err, errors.New("lite.rebuildInterval must be positive"))
	}
	if c.Search.DefaultLimit <= 0 {
		err = multierror.Append(err, errors.New("search.defaultLimit must be positive"))
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		err = multierror.Append(err, errors.New("search.maxResults must be at least search.defaultLimit"))
	}
	switch c.Router.Mode {
	case ModeLite:
	case ModeHosted:
		if c.Router.HostedURL == "" {
			err = multierror.Append(err, errors.New("router.hostedUrl is required in hosted mode"))
		}
	case ModeManaged:
		if c.Router.ManagedURL == "" {
			err = multierror.Append(err, errors.New("router.managedUrl is required in managed mode"))
		}
	default:
		err = multierror.Append(err, fmt.Errorf("router.mode %q must be lite, hosted or managed", c.Router.Mode))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		err = multierror.Append(err, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	return err
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "shop",
			User:            "shop",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "litesearch-group",
			Topics: KafkaTopics{
				CatalogEvents: "catalog-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Lite: LiteConfig{
			IndexSize:       IndexSizeMedium,
			CacheBackend:    "memory",
			CacheTTL:        12 * time.Hour,
			RebuildInterval: 24 * time.Hour,
			BuildWorkers:    workers,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxResults:   100,
		},
		Router: RouterConfig{
			Mode:           ModeLite,
			Timeout:        3 * time.Second,
			FallbackToLite: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_SERVER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("SP_POSTGRES_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Postgres.Enabled = enabled
		}
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = enabled
		}
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_LITE_INDEX_SIZE"); v != "" {
		cfg.Lite.IndexSize = v
	}
	if v := os.Getenv("SP_LITE_CACHE_BACKEND"); v != "" {
		cfg.Lite.CacheBackend = v
	}
	if v := os.Getenv("SP_LITE_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Lite.CacheTTL = ttl
		}
	}
	if v := os.Getenv("SP_ROUTER_MODE"); v != "" {
		cfg.Router.Mode = v
	}
	if v := os.Getenv("SP_ROUTER_HOSTED_URL"); v != "" {
		cfg.Router.HostedURL = v
	}
	if v := os.Getenv("SP_ROUTER_MANAGED_URL"); v != "" {
		cfg.Router.ManagedURL = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
