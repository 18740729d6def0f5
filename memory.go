package encsearch

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Storage. It is safe for concurrent use.
//
// Committed state is guarded by an RWMutex; queries take the read lock only
// for the duration of one lookup. Transactions stage their writes privately
// and apply them under the write lock when fn succeeds.
type MemoryStore struct {
	writer sync.Mutex // serializes Update

	mu       sync.RWMutex
	records  map[int64]EncryptedRecord
	equality map[string][]int64
	postings map[string][][]byte
	maxID    int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[int64]EncryptedRecord),
		equality: make(map[string][]int64),
		postings: make(map[string][][]byte),
	}
}

// Get implements Reader.
func (m *MemoryStore) Get(ctx context.Context, id int64) (EncryptedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return EncryptedRecord{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

// GetKeyword implements Reader.
func (m *MemoryStore) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyPostings(m.postings[token]), nil
}

// GetEquality implements Reader.
func (m *MemoryStore) GetEquality(ctx context.Context, token string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64{}, m.equality[token]...), nil
}

// Len returns the number of committed records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Update implements Storage.
func (m *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.writer.Lock()
	defer m.writer.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:    m,
		records:  make(map[int64]EncryptedRecord),
		equality: make(map[string][]int64),
		postings: make(map[string][][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.commit(tx)
	return nil
}

func (m *MemoryStore) commit(tx *memTx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range tx.records {
		m.records[id] = rec
		if id > m.maxID {
			m.maxID = id
		}
	}
	for token, ids := range tx.equality {
		m.equality[token] = append(m.equality[token], ids...)
	}
	for token, entries := range tx.postings {
		m.postings[token] = append(m.postings[token], entries...)
	}
}

// memTx stages writes for one MemoryStore.Update call.
type memTx struct {
	store    *MemoryStore
	records  map[int64]EncryptedRecord
	equality map[string][]int64
	postings map[string][][]byte
	maxID    int64
}

func (t *memTx) NextID(ctx context.Context) (int64, error) {
	t.store.mu.RLock()
	current := t.store.maxID
	t.store.mu.RUnlock()
	if t.maxID > current {
		current = t.maxID
	}
	return current + 1, nil
}

func (t *memTx) Insert(ctx context.Context, rec EncryptedRecord) error {
	if rec.ID <= 0 {
		return fmt.Errorf("inserting record: invalid id %d", rec.ID)
	}
	if _, err := t.Get(ctx, rec.ID); err == nil {
		return fmt.Errorf("inserting record %d: %w", rec.ID, ErrDuplicateRecord)
	}
	t.records[rec.ID] = copyRecord(rec)
	if rec.ID > t.maxID {
		t.maxID = rec.ID
	}
	return nil
}

func (t *memTx) Get(ctx context.Context, id int64) (EncryptedRecord, error) {
	if rec, ok := t.records[id]; ok {
		return copyRecord(rec), nil
	}
	return t.store.Get(ctx, id)
}

func (t *memTx) PutKeyword(ctx context.Context, token string, encryptedDocID []byte) error {
	t.postings[token] = append(t.postings[token], cloneBytes(encryptedDocID))
	return nil
}

func (t *memTx) GetKeyword(ctx context.Context, token string) ([][]byte, error) {
	committed, err := t.store.GetKeyword(ctx, token)
	if err != nil {
		return nil, err
	}
	return append(committed, copyPostings(t.postings[token])...), nil
}

func (t *memTx) PutEquality(ctx context.Context, token string, id int64) error {
	t.equality[token] = append(t.equality[token], id)
	return nil
}

func (t *memTx) GetEquality(ctx context.Context, token string) ([]int64, error) {
	committed, err := t.store.GetEquality(ctx, token)
	if err != nil {
		return nil, err
	}
	ids := append(committed, t.equality[token]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func copyRecord(rec EncryptedRecord) EncryptedRecord {
	rec.Ciphertext = cloneBytes(rec.Ciphertext)
	return rec
}

func copyPostings(entries [][]byte) [][]byte {
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = cloneBytes(e)
	}
	return out
}

// Ensure MemoryStore satisfies the Storage interface.
var _ Storage = (*MemoryStore)(nil)
