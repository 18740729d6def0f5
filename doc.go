// Package encsearch stores product records so that their plaintext never
// reaches storage, while still answering two kinds of query: keyword search
// over free text and exact-match lookup by product name.
//
// # Encryption
//
// Each record is serialized to JSON, optionally compressed with zstd, and
// sealed with AES-256-GCM (or ChaCha20-Poly1305) under the record key using a
// fresh random 96-bit nonce. The envelope is nonce || ciphertext || tag.
// Tampering with an envelope makes decryption fail with ErrIntegrity.
//
// # Tokens
//
// Tokens are HMAC-SHA256 digests rendered as lowercase hex. The equality
// token is computed over the normalized name under the equality key; keyword
// tokens are computed over each distinct keyword under the keyword key.
// Tokens are deterministic, so they reveal which stored values are equal.
//
// # Inverted index
//
// For every keyword of a record, ingestion appends a freshly encrypted copy
// of the record id to the postings of the keyword token. Two entries for the
// same id are unlinkable.
//
// # Basic Usage
//
//	engine, err := encsearch.New(
//	    encsearch.NewStaticKeyStore(recordKey, keywordKey, equalityKey),
//	    encsearch.NewMemoryStore(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, err := engine.AddRecord(ctx, encsearch.Fields{
//	    "name":        "Running Shoes - SpeedX",
//	    "description": "Comfortable running shoes for daily training",
//	    "category":    "Footwear",
//	    "price":       120,
//	})
//
//	records, err := engine.SearchByKeyword(ctx, "running")
//	records, err = engine.SearchByEqualityField(ctx, "running shoes - speedx")
//
// # Normalization
//
// IMPORTANT: ingestion and lookup must normalize identically. The equality
// field defaults to NormalizeLower (case folding only, no trimming); keyword
// queries default to NormalizeKeyword (trim + lowercase).
//
// # Storage
//
// Storage implementations live in subpackages: sqlstore (SQLite, PostgreSQL)
// and redisstore. MemoryStore serves tests and single-process use. Every
// backend provides an all-or-nothing Update transaction around one ingestion.
//
// # Database Schema
//
//	CREATE TABLE documents (
//	    id             INTEGER PRIMARY KEY,
//	    ciphertext     TEXT NOT NULL,  -- base64 envelope
//	    equality_token TEXT NOT NULL   -- hex HMAC of the normalized name
//	);
//	CREATE TABLE keyword_postings (
//	    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
//	    token            TEXT NOT NULL, -- hex HMAC of the keyword
//	    encrypted_doc_id TEXT NOT NULL  -- base64 envelope of the decimal id
//	);
package encsearch
