package encsearch

import "context"

// EncryptedRecord is the persisted form of a Record.
type EncryptedRecord struct {
	ID            int64
	Ciphertext    []byte // envelope of the serialized Record
	EqualityToken string // hex token of the normalized name
}

// Catalog holds encrypted records keyed by id and assigns ids.
type Catalog interface {
	// Insert stores rec. An existing id fails with ErrDuplicateRecord.
	Insert(ctx context.Context, rec EncryptedRecord) error
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id int64) (EncryptedRecord, error)
	// NextID returns one greater than the current maximum id, or 1 if empty.
	NextID(ctx context.Context) (int64, error)
}

// SearchIndex maps keyword tokens to posting entries and equality tokens to ids.
type SearchIndex interface {
	// PutKeyword appends one encrypted document id to the postings of token.
	// Existing entries are never de-duplicated.
	PutKeyword(ctx context.Context, token string, encryptedDocID []byte) error
	// GetKeyword returns every posting entry of token; unknown tokens yield an empty slice.
	GetKeyword(ctx context.Context, token string) ([][]byte, error)
	// PutEquality associates id with token.
	PutEquality(ctx context.Context, token string, id int64) error
	// GetEquality returns the ids associated with token; unknown tokens yield an empty slice.
	GetEquality(ctx context.Context, token string) ([]int64, error)
}

// Reader is the read side of Storage. Queries use it without coordination.
type Reader interface {
	Get(ctx context.Context, id int64) (EncryptedRecord, error)
	GetKeyword(ctx context.Context, token string) ([][]byte, error)
	GetEquality(ctx context.Context, token string) ([]int64, error)
}

// Tx is a write transaction. Reads through a Tx observe its own staged writes.
type Tx interface {
	Catalog
	SearchIndex
}

// Storage persists the documents and keyword_postings relations.
//
// Update runs fn inside one transaction. Writers are serialized, so a posting
// list is never updated by two transactions at once, and NextID is stable for
// the duration of fn. If fn returns an error nothing it wrote becomes visible;
// on success everything becomes visible at once.
type Storage interface {
	Reader
	Update(ctx context.Context, fn func(tx Tx) error) error
}
