package encsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option is a functional option for configuring an Engine.
type Option func(*config)

// config holds engine configuration options.
type config struct {
	algorithm            Algorithm
	equalityNorm         Normalizer
	keywordNorm          Normalizer
	extractor            KeywordExtractor
	compressionThreshold int
	compressionDisabled  bool
	queryConcurrency     int
	verifyWrites         bool
	logger               *zap.Logger
	registerer           prometheus.Registerer
}

// defaultQueryConcurrency bounds parallel candidate decryption per query.
const defaultQueryConcurrency = 8

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		algorithm:            AlgorithmAESGCM,
		equalityNorm:         NormalizeLower,
		keywordNorm:          NormalizeKeyword,
		compressionThreshold: defaultCompressionThreshold,
		queryConcurrency:     defaultQueryConcurrency,
		verifyWrites:         true,
	}
}

// WithAlgorithm sets the AEAD used for records and posting entries.
// Default is AlgorithmAESGCM.
func WithAlgorithm(algo Algorithm) Option {
	return func(c *config) {
		c.algorithm = algo
	}
}

// WithEqualityNormalizer sets the normalizer applied to the equality field
// (the product name) on both ingestion and lookup. Default is NormalizeLower.
func WithEqualityNormalizer(norm Normalizer) Option {
	return func(c *config) {
		c.equalityNorm = norm
	}
}

// WithKeywordNormalizer sets the normalizer applied to keyword queries.
// Default is NormalizeKeyword. Extracted keywords are already lowercase.
func WithKeywordNormalizer(norm Normalizer) Option {
	return func(c *config) {
		c.keywordNorm = norm
	}
}

// WithMinKeywordLength sets the shortest keyword indexed. Default is 3.
func WithMinKeywordLength(n int) Option {
	return func(c *config) {
		c.extractor.MinLength = n
	}
}

// WithCompressionThreshold sets the minimum serialized record size in bytes before
// compression is attempted. Default is 1024 (1KB).
func WithCompressionThreshold(bytes int) Option {
	return func(c *config) {
		c.compressionThreshold = bytes
	}
}

// WithCompressionDisabled disables record compression entirely.
// Envelopes then always hold plain JSON records.
func WithCompressionDisabled() Option {
	return func(c *config) {
		c.compressionDisabled = true
	}
}

// WithQueryConcurrency bounds how many candidates a single query decrypts in parallel.
// Default is 8.
func WithQueryConcurrency(n int) Option {
	return func(c *config) {
		c.queryConcurrency = n
	}
}

// WithWriteVerification toggles the read-back decrypt of each record inside
// the ingestion transaction. Enabled by default.
func WithWriteVerification(enabled bool) Option {
	return func(c *config) {
		c.verifyWrites = enabled
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRegisterer registers the engine's Prometheus collectors with r.
// Without it the collectors are created but not registered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = r
	}
}
