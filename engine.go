package encsearch

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Engine ingests records and answers keyword and equality queries over them.
// It is safe for concurrent use: queries run in parallel with each other and
// with ingestion, and ingestion is serialized by the Storage transaction.
type Engine struct {
	store     Storage
	records   *RecordCipher // record key: records and posting entries
	keywords  *Tokenizer    // keyword key
	equality  *Tokenizer    // equality key
	extractor KeywordExtractor
	config    *config
	logger    *zap.Logger
	metrics   *Metrics

	// mu is held shared by every operation and exclusively by Close, so the
	// token keys are never cleared under a running add or query.
	mu     sync.RWMutex
	closed bool
}

// New creates an Engine from the keys in ks and the given storage.
// Missing or malformed key material fails with an error wrapping ErrConfiguration.
//
// Example:
//
//	engine, err := encsearch.New(
//	    encsearch.NewStaticKeyStore(recordKey, keywordKey, equalityKey),
//	    encsearch.NewMemoryStore(),
//	    encsearch.WithLogger(logger),
//	)
func New(ks KeyStore, store Storage, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if store == nil {
		return nil, configError(nil, "nil storage")
	}
	if cfg.equalityNorm == nil || cfg.keywordNorm == nil {
		return nil, configError(nil, "nil normalizer")
	}
	if cfg.compressionThreshold <= 0 {
		return nil, configError(nil, "compression threshold must be > 0, got %d", cfg.compressionThreshold)
	}
	if cfg.queryConcurrency <= 0 {
		return nil, configError(nil, "query concurrency must be > 0, got %d", cfg.queryConcurrency)
	}

	ring, err := LoadKeyRing(ks)
	if err != nil {
		return nil, err
	}
	// The ring is only a staging area; each component keeps its own copy.
	defer ring.Close()

	records, err := NewRecordCipher(ring.record[:], cfg.algorithm)
	if err != nil {
		return nil, configError(err, "record cipher")
	}
	keywords, err := NewTokenizer(ring.keyword[:], cfg.keywordNorm)
	if err != nil {
		return nil, configError(err, "keyword tokenizer")
	}
	equality, err := NewTokenizer(ring.equality[:], cfg.equalityNorm)
	if err != nil {
		return nil, configError(err, "equality tokenizer")
	}

	metrics, err := NewMetrics(cfg.registerer)
	if err != nil {
		return nil, configError(err, "registering metrics")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		store:     store,
		records:   records,
		keywords:  keywords,
		equality:  equality,
		extractor: cfg.extractor,
		config:    cfg,
		logger:    logger.With(zap.String("component", "encsearch")),
		metrics:   metrics,
	}, nil
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Close waits for running operations, then zeros out the token keys. After
// calling Close every operation fails with ErrEngineClosed. The storage is
// not closed.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.keywords.Close()
	e.equality.Close()
}

// acquire holds e open for one operation. The caller must call release.
func (e *Engine) acquire() (release func(), err error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrEngineClosed
	}
	return e.mu.RUnlock, nil
}

// openRecord decrypts rec and checks that the payload belongs to rec.ID.
func (e *Engine) openRecord(rec EncryptedRecord) (Record, error) {
	payload, err := e.records.Decrypt(rec.Ciphertext)
	if err != nil {
		return Record{}, err
	}
	r, err := decodeRecord(payload)
	if err != nil {
		return Record{}, err
	}
	if r.ID != rec.ID {
		return Record{}, fmt.Errorf("%w: record %d holds payload of record %d", ErrIntegrity, rec.ID, r.ID)
	}
	return r, nil
}
