package encsearch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticKeyStore(t *testing.T) {
	store := testKeyStore()

	key, err := store.GetKey(PurposeRecord)
	require.NoError(t, err)
	require.True(t, bytes.Equal(testKey("record"), key))

	// Returned keys are copies
	key[0] ^= 0xff
	again, err := store.GetKey(PurposeRecord)
	require.NoError(t, err)
	require.True(t, bytes.Equal(testKey("record"), again))

	_, err = store.GetKey("unknown")
	require.ErrorIs(t, err, ErrKeyMissing)
}

func TestStaticKeyStore_CopiesInput(t *testing.T) {
	record := testKey("record")
	store := NewStaticKeyStore(record, testKey("keyword"), testKey("equality"))
	record[0] ^= 0xff

	key, err := store.GetKey(PurposeRecord)
	require.NoError(t, err)
	require.True(t, bytes.Equal(testKey("record"), key))
}

func TestStaticKeyStore_Close(t *testing.T) {
	store := testKeyStore()
	store.Close()
	_, err := store.GetKey(PurposeRecord)
	require.ErrorIs(t, err, ErrKeyMissing)
}

func TestStaticKeyStore_CloseClearsHeldKeys(t *testing.T) {
	store := testKeyStore()
	held := store.keys[PurposeKeyword]
	store.Close()
	require.Equal(t, make([]byte, KeySize), held)
}

func TestLoadKeyRing(t *testing.T) {
	ring, err := LoadKeyRing(testKeyStore())
	require.NoError(t, err)
	require.Equal(t, testKey("record"), ring.record[:])
	require.Equal(t, testKey("keyword"), ring.keyword[:])
	require.Equal(t, testKey("equality"), ring.equality[:])

	ring.Close()
	require.Equal(t, make([]byte, KeySize), ring.record[:])
}

func TestLoadKeyRing_Failures(t *testing.T) {
	tests := []struct {
		name  string
		store KeyStore
		cause error
	}{
		{"nil store", nil, nil},
		{"missing record", NewStaticKeyStore(nil, testKey("keyword"), testKey("equality")), ErrKeyMissing},
		{"missing equality", NewStaticKeyStore(testKey("record"), testKey("keyword"), nil), ErrKeyMissing},
		{"short key", NewStaticKeyStore(testKey("record"), []byte("short"), testKey("equality")), ErrInvalidKeySize},
		{"long key", NewStaticKeyStore(testKey("record"), testKey("keyword"), make([]byte, 64)), ErrInvalidKeySize},
		{"reused key", NewStaticKeyStore(testKey("same"), testKey("same"), testKey("equality")), ErrDuplicateKeys},
		{"reused equality", NewStaticKeyStore(testKey("record"), testKey("same"), testKey("same")), ErrDuplicateKeys},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring, err := LoadKeyRing(tt.store)
			require.Nil(t, ring)
			require.ErrorIs(t, err, ErrConfiguration)
			if tt.cause != nil {
				require.True(t, errors.Is(err, tt.cause), "expected %v in %v", tt.cause, err)
			}
		})
	}
}

func TestDerivedKeyStore(t *testing.T) {
	masterKey := []byte("01234567890123456789012345678901") // 32 bytes

	store1, err := NewDerivedKeyStore(masterKey)
	require.NoError(t, err)
	store2, err := NewDerivedKeyStore(masterKey)
	require.NoError(t, err)

	// Same master key should produce same derived keys
	for _, p := range purposes {
		k1, err := store1.GetKey(p)
		require.NoError(t, err)
		k2, err := store2.GetKey(p)
		require.NoError(t, err)
		require.Equal(t, k1, k2)
		require.Len(t, k1, KeySize)
	}

	// Derived keys are distinct, so they load as a ring
	ring, err := LoadKeyRing(store1)
	require.NoError(t, err)
	require.NotEqual(t, ring.record, ring.keyword)
	require.NotEqual(t, ring.keyword, ring.equality)
}

func TestDerivedKeyStore_DifferentMasterKeys(t *testing.T) {
	store1, err := NewDerivedKeyStore([]byte("01234567890123456789012345678901"))
	require.NoError(t, err)
	store2, err := NewDerivedKeyStore([]byte("01234567890123456789012345678902"))
	require.NoError(t, err)

	k1, _ := store1.GetKey(PurposeRecord)
	k2, _ := store2.GetKey(PurposeRecord)
	require.NotEqual(t, k1, k2)
}

func TestDerivedKeyStore_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		_, err := NewDerivedKeyStore(make([]byte, size))
		require.ErrorIs(t, err, ErrInvalidKeySize, "size %d", size)
	}
}
