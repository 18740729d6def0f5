// Package sqlstore persists an encsearch index in SQLite or PostgreSQL.
//
// The schema has two tables:
//
//	documents(id, ciphertext, equality_token)
//	keyword_postings(seq, token, encrypted_doc_id)
//
// Ciphertexts and posting entries are stored as base64 text, tokens as hex.
// Each posting entry is its own row, so appending to a token's postings is a
// single INSERT.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register pure-Go "sqlite" driver

	"github.com/ai8future/encsearch"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	prefix string
	logger *zap.Logger
}

// WithTablePrefix prepends prefix to both table names. The prefix must be a
// plain SQL identifier (letters, digits, underscore; not starting with a digit).
func WithTablePrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Store implements encsearch.Storage on a *sql.DB.
//
// An id carries exactly one equality token, held in its documents row.
type Store struct {
	db      *sql.DB
	dialect Dialect
	q       queries
	logger  *zap.Logger

	writer sync.Mutex // serializes Update within this process
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New wraps db. It does not create the schema; call EnsureSchema.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", encsearch.ErrConfiguration)
	}
	if dialect != SQLite && dialect != Postgres {
		return nil, fmt.Errorf("%w: unknown dialect %q", encsearch.ErrConfiguration, dialect)
	}
	if o.prefix != "" && !isValidIdentifier(o.prefix) {
		return nil, fmt.Errorf("%w: %w: table prefix %q", encsearch.ErrConfiguration, encsearch.ErrInvalidIdentifier, o.prefix)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		q:       buildQueries(dialect, o.prefix),
		logger:  logger.With(zap.String("component", "sqlstore"), zap.String("dialect", string(dialect))),
	}, nil
}

// OpenSQLite opens the SQLite database at dsn and ensures the schema exists.
// In-memory databases are limited to one connection so every query sees the same data.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	inMemory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !inMemory && !strings.Contains(dsn, "?") {
		// Writers take the lock at BEGIN; readers wait instead of failing with SQLITE_BUSY.
		dsn += "?_txlock=immediate&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}
	return open(ctx, db, SQLite, opts)
}

// OpenPostgres connects to PostgreSQL through pgx and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)
	return open(ctx, db, Postgres, opts)
}

func open(ctx context.Context, db *sql.DB, dialect Dialect, opts []Option) (*Store, error) {
	s, err := New(db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", dialect, err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.q.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	s.logger.Debug("schema ready")
	return nil
}

// DropSchema removes both tables and everything in them.
func (s *Store) DropSchema(ctx context.Context) error {
	s.writer.Lock()
	defer s.writer.Unlock()
	for _, stmt := range s.q.drop {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping schema: %w", err)
		}
	}
	s.logger.Info("schema dropped")
	return nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements encsearch.Reader.
func (s *Store) Get(ctx context.Context, id int64) (encsearch.EncryptedRecord, error) {
	return getRecord(ctx, s.db, &s.q, id)
}

// GetKeyword implements encsearch.Reader.
func (s *Store) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	return getKeyword(ctx, s.db, &s.q, token)
}

// GetEquality implements encsearch.Reader.
func (s *Store) GetEquality(ctx context.Context, token string) ([]int64, error) {
	return getEquality(ctx, s.db, &s.q, token)
}

// Update implements encsearch.Storage. fn runs inside one database transaction
// that is rolled back if fn or the commit fails.
func (s *Store) Update(ctx context.Context, fn func(tx encsearch.Tx) error) (err error) {
	s.writer.Lock()
	defer s.writer.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if s.q.lock != "" {
		if _, err = sqlTx.ExecContext(ctx, s.q.lock); err != nil {
			return fmt.Errorf("locking documents: %w", err)
		}
	}
	if err = fn(&tx{conn: sqlTx, q: &s.q}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// tx implements encsearch.Tx on one *sql.Tx.
type tx struct {
	conn *sql.Tx
	q    *queries
}

func (t *tx) NextID(ctx context.Context) (int64, error) {
	var current int64
	if err := t.conn.QueryRowContext(ctx, t.q.maxID).Scan(&current); err != nil {
		return 0, fmt.Errorf("reading max id: %w", err)
	}
	return current + 1, nil
}

func (t *tx) Insert(ctx context.Context, rec encsearch.EncryptedRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("inserting record: invalid id %d", rec.ID)
	}
	res, err := t.conn.ExecContext(ctx, t.q.insert, rec.ID, encsearch.EncodeEnvelope(rec.Ciphertext), rec.EqualityToken)
	if err != nil {
		return fmt.Errorf("inserting record %d: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting record %d: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("inserting record %d: %w", rec.ID, encsearch.ErrDuplicateRecord)
	}
	return nil
}

func (t *tx) Get(ctx context.Context, id int64) (encsearch.EncryptedRecord, error) {
	return getRecord(ctx, t.conn, t.q, id)
}

func (t *tx) PutKeyword(ctx context.Context, token string, encryptedDocID []byte) error {
	if _, err := t.conn.ExecContext(ctx, t.q.putKeyword, token, encsearch.EncodeEnvelope(encryptedDocID)); err != nil {
		return fmt.Errorf("appending posting: %w", err)
	}
	return nil
}

func (t *tx) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	return getKeyword(ctx, t.conn, t.q, token)
}

func (t *tx) PutEquality(ctx context.Context, token string, id int64) error {
	res, err := t.conn.ExecContext(ctx, t.q.putEquality, token, id)
	if err != nil {
		return fmt.Errorf("setting equality token of record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting equality token of record %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("setting equality token of record %d: %w", id, encsearch.ErrNotFound)
	}
	return nil
}

func (t *tx) GetEquality(ctx context.Context, token string) ([]int64, error) {
	return getEquality(ctx, t.conn, t.q, token)
}

func getRecord(ctx context.Context, db querier, q *queries, id int64) (encsearch.EncryptedRecord, error) {
	var ciphertext, token string
	err := db.QueryRowContext(ctx, q.get, id).Scan(&ciphertext, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return encsearch.EncryptedRecord{}, encsearch.ErrNotFound
	}
	if err != nil {
		return encsearch.EncryptedRecord{}, fmt.Errorf("reading record %d: %w", id, err)
	}
	return encsearch.EncryptedRecord{
		ID:            id,
		Ciphertext:    decodeText(ciphertext),
		EqualityToken: token,
	}, nil
}

func getKeyword(ctx context.Context, db querier, q *queries, token string) ([][]byte, error) {
	rows, err := db.QueryContext(ctx, q.getKeyword, token)
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	defer rows.Close()

	entries := [][]byte{}
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, fmt.Errorf("reading postings: %w", err)
		}
		entries = append(entries, decodeText(entry))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	return entries, nil
}

func getEquality(ctx context.Context, db querier, q *queries, token string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, q.getEquality, token)
	if err != nil {
		return nil, fmt.Errorf("reading equality ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("reading equality ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading equality ids: %w", err)
	}
	return ids, nil
}

// decodeText turns a stored base64 column back into an envelope. A value that
// is not valid base64 is returned verbatim so it fails authentication when the
// engine opens it, and the candidate is dropped like any tampered row.
func decodeText(s string) []byte {
	env, err := encsearch.DecodeEnvelope(s)
	if err != nil {
		return []byte(s)
	}
	return env
}

// Ensure Store satisfies the Storage interface.
var _ encsearch.Storage = (*Store)(nil)
