package encsearch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// TokenSize is the length in bytes of a raw token (HMAC-SHA256 output).
const TokenSize = sha256.Size

// Tokenizer derives deterministic, non-invertible tokens from plaintext.
// It is safe for concurrent use.
//
// The token is deterministic: same normalized input + same key = same token.
// This is what makes the index queryable, and it also means anyone who can
// observe tokens learns which plaintexts are equal.
type Tokenizer struct {
	key  [KeySize]byte
	norm Normalizer
}

// NewTokenizer creates a Tokenizer for a 32-byte key.
// A nil normalizer is treated as NormalizeNone.
func NewTokenizer(key []byte, norm Normalizer) (*Tokenizer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if norm == nil {
		norm = NormalizeNone
	}
	t := &Tokenizer{norm: norm}
	copy(t.key[:], key)
	return t, nil
}

// Token returns the lowercase hex HMAC-SHA256 of the normalized text.
func (t *Tokenizer) Token(text string) string {
	return hex.EncodeToString(t.Sum(text))
}

// Sum returns the raw HMAC-SHA256 of the normalized text.
func (t *Tokenizer) Sum(text string) []byte {
	return computeHMACWithKey(&t.key, []byte(t.norm(text)))
}

// Normalize applies the tokenizer's normalizer without hashing.
func (t *Tokenizer) Normalize(text string) string {
	return t.norm(text)
}

// Close zeros out the key.
func (t *Tokenizer) Close() {
	clear(t.key[:])
}

// computeHMACWithKey computes HMAC-SHA256 with the given key.
func computeHMACWithKey(key *[KeySize]byte, data []byte) []byte {
	h := hmac.New(sha256.New, key[:])
	h.Write(data)
	return h.Sum(nil)
}
