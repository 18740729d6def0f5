// Package config loads encsearch configuration from YAML files with
// environment-variable overrides, and turns it into a KeyStore, engine
// options and a logger.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the top-level configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Keys    KeysConfig    `yaml:"keys"`
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
}

// StorageConfig selects and parameterizes the backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path        string `yaml:"path"`
	TablePrefix string `yaml:"tablePrefix"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	TablePrefix string `yaml:"tablePrefix"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// KeysConfig carries key material as standard base64. Exactly one source is
// used: File, then Master, then the three per-purpose keys.
type KeysConfig struct {
	File     string `yaml:"file"`     // JSON key file, see LoadKeyFile
	Master   string `yaml:"master"`   // derive all three keys with HKDF
	Record   string `yaml:"record"`   // AEAD key for records and postings
	Keyword  string `yaml:"keyword"`  // HMAC key for keyword tokens
	Equality string `yaml:"equality"` // HMAC key for equality tokens
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EngineConfig mirrors the encsearch engine options.
type EngineConfig struct {
	Algorithm            string `yaml:"algorithm"`
	EqualityNormalizer   string `yaml:"equalityNormalizer"`
	MinKeywordLength     int    `yaml:"minKeywordLength"`
	CompressionThreshold int    `yaml:"compressionThreshold"`
	CompressionDisabled  bool   `yaml:"compressionDisabled"`
	QueryConcurrency     int    `yaml:"queryConcurrency"`
	VerifyWrites         bool   `yaml:"verifyWrites"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults. Load does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()
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
	return cfg, nil
}

// Default returns a Config for local development: a SQLite file in the
// working directory and no key material.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "encrypted_search.db"},
			Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "encsearch:"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			Algorithm:            "aes-gcm",
			EqualityNormalizer:   "lower",
			MinKeywordLength:     3,
			CompressionThreshold: 1024,
			QueryConcurrency:     8,
			VerifyWrites:         true,
		},
	}
}

// applyEnvOverrides reads ENCSEARCH_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ENCSEARCH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("ENCSEARCH_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("ENCSEARCH_PG_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("ENCSEARCH_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("ENCSEARCH_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("ENCSEARCH_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Redis.DB = db
		}
	}
	if v := os.Getenv("ENCSEARCH_KEY_FILE"); v != "" {
		cfg.Keys.File = v
	}
	if v := os.Getenv("ENCSEARCH_MASTER_KEY"); v != "" {
		cfg.Keys.Master = v
	}
	if v := os.Getenv("ENCSEARCH_RECORD_KEY"); v != "" {
		cfg.Keys.Record = v
	}
	if v := os.Getenv("ENCSEARCH_KEYWORD_KEY"); v != "" {
		cfg.Keys.Keyword = v
	}
	if v := os.Getenv("ENCSEARCH_EQUALITY_KEY"); v != "" {
		cfg.Keys.Equality = v
	}
	if v := os.Getenv("ENCSEARCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ENCSEARCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ENCSEARCH_ALGORITHM"); v != "" {
		cfg.Engine.Algorithm = v
	}
	if v := os.Getenv("ENCSEARCH_QUERY_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.QueryConcurrency = n
		}
	}
}
