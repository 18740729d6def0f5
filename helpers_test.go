package encsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(id string) []byte {
	// Generate a deterministic 32-byte key for testing
	key := make([]byte, 32)
	copy(key, []byte(id))
	for i := len(id); i < 32; i++ {
		key[i] = byte(i)
	}
	return key
}

func testKeyStore() *StaticKeyStore {
	return NewStaticKeyStore(testKey("record"), testKey("keyword"), testKey("equality"))
}

func newTestEngine(t *testing.T, store Storage, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(testKeyStore(), store, opts...)
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func shoes() Fields {
	return Fields{
		"name":        "Running Shoes - SpeedX",
		"description": "Comfortable running shoes for daily training",
		"category":    "Footwear",
		"price":       120,
	}
}

func seed(t *testing.T, engine *Engine) {
	t.Helper()
	for _, f := range SampleProducts() {
		_, err := engine.AddRecord(context.Background(), f)
		require.NoError(t, err)
	}
}

func recordIDs(records []Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
