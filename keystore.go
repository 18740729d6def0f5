package encsearch

import (
	"crypto/subtle"
	"fmt"
)

// KeySize is the required length of every key in the ring.
const KeySize = 32

// KeyPurpose names one of the three disjoint key roles.
type KeyPurpose string

const (
	// PurposeRecord encrypts records and posting entries.
	PurposeRecord KeyPurpose = "record"
	// PurposeKeyword keys the keyword token PRF.
	PurposeKeyword KeyPurpose = "keyword"
	// PurposeEquality keys the equality token PRF.
	PurposeEquality KeyPurpose = "equality"
)

// purposes lists every purpose a KeyRing needs, in load order.
var purposes = []KeyPurpose{PurposeRecord, PurposeKeyword, PurposeEquality}

// KeyStore supplies key material at startup.
// Implement this interface to integrate with an external secrets manager;
// generation and distribution of the keys happen outside this package.
type KeyStore interface {
	// GetKey returns the 32-byte key for the purpose, or an error if it has none.
	GetKey(purpose KeyPurpose) ([]byte, error)
}

// StaticKeyStore is a simple in-memory KeyStore.
// Useful for testing or deployments that receive keys through configuration.
type StaticKeyStore struct {
	keys map[KeyPurpose][]byte
}

// NewStaticKeyStore creates a StaticKeyStore holding copies of the given keys.
// A nil key leaves the purpose unset so LoadKeyRing reports it as missing.
func NewStaticKeyStore(record, keyword, equality []byte) *StaticKeyStore {
	s := &StaticKeyStore{keys: make(map[KeyPurpose][]byte, len(purposes))}
	for purpose, key := range map[KeyPurpose][]byte{
		PurposeRecord:   record,
		PurposeKeyword:  keyword,
		PurposeEquality: equality,
	} {
		if key == nil {
			continue
		}
		s.keys[purpose] = cloneBytes(key)
	}
	return s
}

// GetKey implements KeyStore.
func (s *StaticKeyStore) GetKey(purpose KeyPurpose) ([]byte, error) {
	key, ok := s.keys[purpose]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyMissing, purpose)
	}
	return cloneBytes(key), nil
}

// Close zeros out all key material from memory.
func (s *StaticKeyStore) Close() {
	for _, key := range s.keys {
		clear(key)
	}
	s.keys = nil
}

// KeyRing holds the three independent keys used by the engine.
type KeyRing struct {
	record   [KeySize]byte
	keyword  [KeySize]byte
	equality [KeySize]byte
}

// LoadKeyRing fetches all three keys from the store and validates them.
// Any missing key, wrong length, or reuse of the same key for two purposes
// fails with an error wrapping ErrConfiguration.
func LoadKeyRing(store KeyStore) (*KeyRing, error) {
	if store == nil {
		return nil, configError(nil, "nil key store")
	}
	ring := &KeyRing{}
	dst := map[KeyPurpose]*[KeySize]byte{
		PurposeRecord:   &ring.record,
		PurposeKeyword:  &ring.keyword,
		PurposeEquality: &ring.equality,
	}
	for _, purpose := range purposes {
		key, err := store.GetKey(purpose)
		if err != nil {
			ring.Close()
			return nil, configError(err, "loading %s key", purpose)
		}
		if len(key) != KeySize {
			clear(key)
			ring.Close()
			return nil, configError(ErrInvalidKeySize, "%s key has %d bytes", purpose, len(key))
		}
		copy(dst[purpose][:], key)
		clear(key)
	}
	if subtle.ConstantTimeCompare(ring.record[:], ring.keyword[:]) == 1 ||
		subtle.ConstantTimeCompare(ring.record[:], ring.equality[:]) == 1 ||
		subtle.ConstantTimeCompare(ring.keyword[:], ring.equality[:]) == 1 {
		ring.Close()
		return nil, configError(ErrDuplicateKeys, "key ring")
	}
	return ring, nil
}

// Close zeros out all key material held by the ring.
func (k *KeyRing) Close() {
	clear(k.record[:])
	clear(k.keyword[:])
	clear(k.equality[:])
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

