package config

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ai8future/encsearch"
)

var normalizers = map[string]encsearch.Normalizer{
	"lower":      encsearch.NormalizeLower,
	"trim-lower": encsearch.NormalizeTrimLower,
	"fold":       encsearch.NormalizeFold,
	"none":       encsearch.NormalizeNone,
}

var algorithms = map[string]encsearch.Algorithm{
	"aes-gcm":           encsearch.AlgorithmAESGCM,
	"chacha20-poly1305": encsearch.AlgorithmChaCha20Poly1305,
}

// Validate reports every problem in c as one error wrapping encsearch.ErrConfiguration.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			problems = append(problems, "storage.sqlite.path is required")
		}
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			problems = append(problems, "storage.postgres.dsn is required")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			problems = append(problems, "storage.redis.addr is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}

	k := c.Keys
	if k.File == "" && k.Master == "" && (k.Record == "" || k.Keyword == "" || k.Equality == "") {
		problems = append(problems, "keys: set file, master, or all of record, keyword and equality")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}

	e := c.Engine
	if _, ok := algorithms[e.Algorithm]; !ok {
		problems = append(problems, fmt.Sprintf("unknown algorithm %q", e.Algorithm))
	}
	if _, ok := normalizers[e.EqualityNormalizer]; !ok {
		problems = append(problems, fmt.Sprintf("unknown equality normalizer %q", e.EqualityNormalizer))
	}
	if e.MinKeywordLength <= 0 {
		problems = append(problems, "engine.minKeywordLength must be > 0")
	}
	if e.CompressionThreshold <= 0 {
		problems = append(problems, "engine.compressionThreshold must be > 0")
	}
	if e.QueryConcurrency <= 0 {
		problems = append(problems, "engine.queryConcurrency must be > 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", encsearch.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Options returns the engine options described by c. Unknown names are left
// to the engine defaults; call Validate first to reject them.
func (c *Config) Options(logger *zap.Logger, reg prometheus.Registerer) []encsearch.Option {
	e := c.Engine
	opts := []encsearch.Option{
		encsearch.WithMinKeywordLength(e.MinKeywordLength),
		encsearch.WithCompressionThreshold(e.CompressionThreshold),
		encsearch.WithQueryConcurrency(e.QueryConcurrency),
		encsearch.WithWriteVerification(e.VerifyWrites),
	}
	if algo, ok := algorithms[e.Algorithm]; ok {
		opts = append(opts, encsearch.WithAlgorithm(algo))
	}
	if norm, ok := normalizers[e.EqualityNormalizer]; ok {
		opts = append(opts, encsearch.WithEqualityNormalizer(norm))
	}
	if e.CompressionDisabled {
		opts = append(opts, encsearch.WithCompressionDisabled())
	}
	if logger != nil {
		opts = append(opts, encsearch.WithLogger(logger))
	}
	if reg != nil {
		opts = append(opts, encsearch.WithRegisterer(reg))
	}
	return opts
}

// Build constructs a zap logger from zap's production configuration.
func (l LoggingConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", encsearch.ErrConfiguration, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	if l.Format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return cfg.Build()
}
