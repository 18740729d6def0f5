package encsearch

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm selects the AEAD used by a RecordCipher.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM, the default.
	AlgorithmAESGCM Algorithm = "aes-gcm"
	// AlgorithmChaCha20Poly1305 is ChaCha20-Poly1305 (RFC 8439).
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// RecordCipher envelope-encrypts byte strings under the record key.
// It is safe for concurrent use.
//
// Every Encrypt call draws a fresh random 96-bit nonce, so encrypting the
// same plaintext twice yields unlinkable envelopes.
type RecordCipher struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// NewRecordCipher creates a RecordCipher for a 32-byte key.
// An empty algorithm selects AlgorithmAESGCM.
func NewRecordCipher(key []byte, algorithm Algorithm) (*RecordCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if algorithm == "" {
		algorithm = AlgorithmAESGCM
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch algorithm {
	case AlgorithmAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err = cipher.NewGCM(block)
	case AlgorithmChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if err != nil {
		return nil, err
	}
	if aead.NonceSize() != nonceSize {
		return nil, fmt.Errorf("%w: nonce size %d", ErrUnsupportedAlgorithm, aead.NonceSize())
	}
	return &RecordCipher{aead: aead, algorithm: algorithm}, nil
}

// Algorithm returns the AEAD in use.
func (c *RecordCipher) Algorithm() Algorithm {
	return c.algorithm
}

// Encrypt seals plaintext and returns the envelope nonce || ciphertext_and_tag.
// No associated data is bound.
func (c *RecordCipher) Encrypt(plaintext []byte) []byte {
	nonce := generateNonce()
	out := make([]byte, 0, nonceSize+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce[:]...)
	return c.aead.Seal(out, nonce[:], plaintext, nil)
}

// Decrypt opens an envelope produced by Encrypt.
// Tampered, truncated, or foreign envelopes fail with an error wrapping ErrIntegrity.
func (c *RecordCipher) Decrypt(envelope []byte) ([]byte, error) {
	nonce, sealed, err := splitEnvelope(envelope, c.aead.Overhead())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// generateNonce generates a cryptographically secure random 12-byte nonce.
// Panics if the system's random source fails (unrecoverable).
func generateNonce() [nonceSize]byte {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return nonce
}
