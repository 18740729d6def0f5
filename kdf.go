package encsearch

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Info strings for HKDF derivation - distinct strings ensure separate keys
const (
	infoRecord   = "encsearch-record"
	infoKeyword  = "encsearch-keyword-token"
	infoEquality = "encsearch-equality-token"
)

// DerivedKeyStore is a KeyStore that expands one 32-byte master key into the
// three purpose keys with HKDF-SHA256.
//
// The derivation uses distinct info strings to ensure cryptographic separation:
//   - Record key:   HKDF(masterKey, info="encsearch-record")
//   - Keyword key:  HKDF(masterKey, info="encsearch-keyword-token")
//   - Equality key: HKDF(masterKey, info="encsearch-equality-token")
type DerivedKeyStore struct {
	keys map[KeyPurpose][]byte
}

// NewDerivedKeyStore derives all purpose keys from masterKey.
// The master key is not retained; the caller may zero it afterwards.
func NewDerivedKeyStore(masterKey []byte) (*DerivedKeyStore, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	s := &DerivedKeyStore{keys: make(map[KeyPurpose][]byte, len(purposes))}
	for purpose, info := range map[KeyPurpose]string{
		PurposeRecord:   infoRecord,
		PurposeKeyword:  infoKeyword,
		PurposeEquality: infoEquality,
	} {
		out := make([]byte, KeySize)
		if err := hkdfDerive(masterKey, info, out); err != nil {
			s.Close()
			return nil, err
		}
		s.keys[purpose] = out
	}
	return s, nil
}

// GetKey implements KeyStore.
func (s *DerivedKeyStore) GetKey(purpose KeyPurpose) ([]byte, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, purpose)
	}
	return cloneBytes(key), nil
}

// Close zeros out all derived key material.
func (s *DerivedKeyStore) Close() {
	for _, key := range s.keys {
		clear(key)
	}
	s.keys = nil
}

// hkdfDerive performs HKDF-SHA256 key derivation with the given info string.
// No salt is used (nil salt means HKDF uses a zero-filled salt of HashLen bytes).
func hkdfDerive(masterKey []byte, info string, out []byte) error {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	_, err := io.ReadFull(reader, out)
	return err
}
