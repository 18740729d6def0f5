// Package redisstore persists an encsearch index in Redis.
//
// Keys, under a configurable prefix (default "encsearch:"):
//
//	{prefix}seq            highest assigned id
//	{prefix}doc:{id}       hash with ciphertext (base64) and equality_token
//	{prefix}kw:{token}     list of base64 posting entries, in append order
//	{prefix}eq:{token}     set of ids
//
// Update stages writes in memory and applies them in one MULTI/EXEC after
// WATCHing the sequence key, retrying when another writer got there first.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ai8future/encsearch"
)

// DefaultKeyPrefix namespaces every key the Store writes.
const DefaultKeyPrefix = "encsearch:"

// maxRetries bounds optimistic transaction attempts under contention.
const maxRetries = 10

// ErrContention indicates Update gave up after repeated WATCH conflicts.
var ErrContention = errors.New("redisstore: transaction aborted after repeated conflicts")

const (
	fieldCiphertext    = "ciphertext"
	fieldEqualityToken = "equality_token"
)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix sets the namespace of every key. Default is DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store implements encsearch.Storage on a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger

	writer sync.Mutex // serializes Update within this process
}

// New wraps client. The client is closed by Store.Close.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "redisstore"))
	return s
}

// Open connects to the Redis server at addr and verifies the connection with a PING.
func Open(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, opts...), nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) seqKey() string { return s.prefix + "seq" }

func (s *Store) docKey(id int64) string { return s.prefix + "doc:" + strconv.FormatInt(id, 10) }

func (s *Store) keywordKey(token string) string { return s.prefix + "kw:" + token }

func (s *Store) equalityKey(token string) string { return s.prefix + "eq:" + token }

// commands is the read subset shared by the client and a WATCH transaction.
type commands interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// Get implements encsearch.Reader.
func (s *Store) Get(ctx context.Context, id int64) (encsearch.EncryptedRecord, error) {
	return s.getRecord(ctx, s.client, id)
}

// GetKeyword implements encsearch.Reader.
func (s *Store) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	return s.getKeyword(ctx, s.client, token)
}

// GetEquality implements encsearch.Reader.
func (s *Store) GetEquality(ctx context.Context, token string) ([]int64, error) {
	return s.getEquality(ctx, s.client, token)
}

func (s *Store) getRecord(ctx context.Context, c commands, id int64) (encsearch.EncryptedRecord, error) {
	fields, err := c.HGetAll(ctx, s.docKey(id)).Result()
	if err != nil {
		return encsearch.EncryptedRecord{}, fmt.Errorf("reading record %d: %w", id, err)
	}
	if len(fields) == 0 {
		return encsearch.EncryptedRecord{}, encsearch.ErrNotFound
	}
	return encsearch.EncryptedRecord{
		ID:            id,
		Ciphertext:    decodeText(fields[fieldCiphertext]),
		EqualityToken: fields[fieldEqualityToken],
	}, nil
}

func (s *Store) getKeyword(ctx context.Context, c commands, token string) ([][]byte, error) {
	values, err := c.LRange(ctx, s.keywordKey(token), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	entries := make([][]byte, len(values))
	for i, v := range values {
		entries[i] = decodeText(v)
	}
	return entries, nil
}

func (s *Store) getEquality(ctx context.Context, c commands, token string) ([]int64, error) {
	members, err := c.SMembers(ctx, s.equalityKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading equality ids: %w", err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("reading equality ids: member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Update implements encsearch.Storage. fn may run more than once when another
// writer commits between its reads and the EXEC; only the last run's writes
// are applied.
func (s *Store) Update(ctx context.Context, fn func(tx encsearch.Tx) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			t := &tx{store: s, conn: rtx}
			if err := fn(t); err != nil {
				return err
			}
			_, err := rtx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				t.apply(ctx, p)
				return nil
			})
			return err
		}, s.seqKey())
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("transaction conflict, retrying", zap.Int("attempt", attempt))
			continue
		}
		return err
	}
	return ErrContention
}

// tx stages the writes of one Update attempt.
type tx struct {
	store *Store
	conn  *redis.Tx

	seqLoaded bool
	seq       int64 // committed sequence value, read under WATCH

	records  []encsearch.EncryptedRecord
	postings []posting
	equality []equalityEntry
}

type posting struct {
	token string
	entry []byte
}

type equalityEntry struct {
	token string
	id    int64
}

func (t *tx) committedSeq(ctx context.Context) (int64, error) {
	if t.seqLoaded {
		return t.seq, nil
	}
	v, err := t.conn.Get(ctx, t.store.seqKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading sequence: %w", err)
	}
	t.seq, t.seqLoaded = v, true
	return v, nil
}

func (t *tx) maxID(ctx context.Context) (int64, error) {
	current, err := t.committedSeq(ctx)
	if err != nil {
		return 0, err
	}
	for _, rec := range t.records {
		if rec.ID > current {
			current = rec.ID
		}
	}
	return current, nil
}

func (t *tx) NextID(ctx context.Context) (int64, error) {
	current, err := t.maxID(ctx)
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (t *tx) Insert(ctx context.Context, rec encsearch.EncryptedRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("inserting record: invalid id %d", rec.ID)
	}
	// Loading the sequence keeps apply from moving it backwards.
	if _, err := t.committedSeq(ctx); err != nil {
		return err
	}
	key := t.store.docKey(rec.ID)
	if err := t.conn.Watch(ctx, key).Err(); err != nil {
		return fmt.Errorf("inserting record %d: %w", rec.ID, err)
	}
	if _, err := t.Get(ctx, rec.ID); err == nil {
		return fmt.Errorf("inserting record %d: %w", rec.ID, encsearch.ErrDuplicateRecord)
	} else if !errors.Is(err, encsearch.ErrNotFound) {
		return err
	}
	rec.Ciphertext = append([]byte(nil), rec.Ciphertext...)
	t.records = append(t.records, rec)
	return nil
}

func (t *tx) Get(ctx context.Context, id int64) (encsearch.EncryptedRecord, error) {
	for _, rec := range t.records {
		if rec.ID == id {
			rec.Ciphertext = append([]byte(nil), rec.Ciphertext...)
			return rec, nil
		}
	}
	return t.store.getRecord(ctx, t.conn, id)
}

func (t *tx) PutKeyword(ctx context.Context, token string, encryptedDocID []byte) error {
	t.postings = append(t.postings, posting{token: token, entry: append([]byte(nil), encryptedDocID...)})
	return nil
}

func (t *tx) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	entries, err := t.store.getKeyword(ctx, t.conn, token)
	if err != nil {
		return nil, err
	}
	for _, p := range t.postings {
		if p.token == token {
			entries = append(entries, append([]byte(nil), p.entry...))
		}
	}
	return entries, nil
}

func (t *tx) PutEquality(ctx context.Context, token string, id int64) error {
	t.equality = append(t.equality, equalityEntry{token: token, id: id})
	return nil
}

func (t *tx) GetEquality(ctx context.Context, token string) ([]int64, error) {
	ids, err := t.store.getEquality(ctx, t.conn, token)
	if err != nil {
		return nil, err
	}
	for _, e := range t.equality {
		if e.token == token {
			ids = append(ids, e.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// apply queues the staged writes on p. The sequence only moves forward.
func (t *tx) apply(ctx context.Context, p redis.Pipeliner) {
	s := t.store
	highest := t.seq
	for _, rec := range t.records {
		p.HSet(ctx, s.docKey(rec.ID),
			fieldCiphertext, encsearch.EncodeEnvelope(rec.Ciphertext),
			fieldEqualityToken, rec.EqualityToken,
		)
		if rec.ID > highest {
			highest = rec.ID
		}
	}
	if highest > t.seq {
		p.Set(ctx, s.seqKey(), highest, 0)
	}
	for _, e := range t.equality {
		p.SAdd(ctx, s.equalityKey(e.token), strconv.FormatInt(e.id, 10))
	}
	for _, post := range t.postings {
		p.RPush(ctx, s.keywordKey(post.token), encsearch.EncodeEnvelope(post.entry))
	}
}

// decodeText turns a stored base64 value back into an envelope. A value that
// is not valid base64 is returned verbatim so it fails authentication when the
// engine opens it.
func decodeText(s string) []byte {
	env, err := encsearch.DecodeEnvelope(s)
	if err != nil {
		return []byte(s)
	}
	return env
}

// Ensure Store satisfies the Storage interface.
var _ encsearch.Storage = (*Store)(nil)
