package redisstore

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ai8future/encsearch"
	"github.com/ai8future/encsearch/storagetest"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func testKeys() encsearch.KeyStore {
	return encsearch.NewStaticKeyStore(
		[]byte("record-key-must-be-32-bytes!!!!!"),
		[]byte("keyword-key-must-be-32-bytes!!!!"),
		[]byte("equality-key-must-be-32-bytes!!!"),
	)
}

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) encsearch.Storage {
		s, _ := newTestStore(t)
		return s
	})
}

func TestStore_Engine(t *testing.T) {
	storagetest.RunEngine(t, func(t *testing.T) encsearch.Storage {
		s, _ := newTestStore(t)
		return s
	})
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	s, err := Open(context.Background(), addr, "", 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	mr.Close()
	_, err = Open(context.Background(), addr, "", 0)
	require.Error(t, err)
}

func TestStore_KeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t, WithKeyPrefix("shop:"))
	engine, err := encsearch.New(testKeys(), s)
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.AddRecord(ctx, encsearch.SampleProducts()[4])
	require.NoError(t, err)

	seq, err := mr.Get("shop:seq")
	require.NoError(t, err)
	require.Equal(t, "1", seq)

	ciphertext := mr.HGet("shop:doc:1", fieldCiphertext)
	_, err = encsearch.DecodeEnvelope(ciphertext)
	require.NoError(t, err)
	token := mr.HGet("shop:doc:1", fieldEqualityToken)
	require.Len(t, token, 64)

	members, err := mr.Members("shop:eq:" + token)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, members)

	for _, key := range mr.Keys() {
		require.Regexp(t, `^shop:`, key)
	}
}

func TestStore_PrefixesIsolate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	a := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithKeyPrefix("a:"))
	b := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithKeyPrefix("b:"))
	defer a.Close()
	defer b.Close()

	err := a.Update(ctx, func(tx encsearch.Tx) error {
		return tx.Insert(ctx, encsearch.EncryptedRecord{ID: 1, Ciphertext: []byte("x"), EqualityToken: "t"})
	})
	require.NoError(t, err)

	_, err = b.Get(ctx, 1)
	require.ErrorIs(t, err, encsearch.ErrNotFound)
}

func TestStore_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	var runs atomic.Int32
	var ids []int64
	err := s.Update(ctx, func(tx encsearch.Tx) error {
		id, err := tx.NextID(ctx)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		if runs.Add(1) == 1 {
			// Another writer claims id 1 between our read and EXEC.
			require.NoError(t, mr.Set(s.seqKey(), "1"))
		}
		return tx.Insert(ctx, encsearch.EncryptedRecord{ID: id, Ciphertext: []byte("mine"), EqualityToken: "mine"})
	})
	require.NoError(t, err)
	require.Equal(t, int32(2), runs.Load())
	require.Equal(t, []int64{1, 2}, ids)

	rec, err := s.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []byte("mine"), rec.Ciphertext)
	_, err = s.Get(ctx, 1)
	require.ErrorIs(t, err, encsearch.ErrNotFound)
}

func TestStore_GivesUpUnderContention(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	var runs int
	err := s.Update(ctx, func(tx encsearch.Tx) error {
		runs++
		if _, err := tx.NextID(ctx); err != nil {
			return err
		}
		_, _ = mr.Incr(s.seqKey(), 1)
		return tx.PutKeyword(ctx, "kw", []byte("entry"))
	})
	require.ErrorIs(t, err, ErrContention)
	require.Equal(t, maxRetries, runs)

	entries, err := s.GetKeyword(ctx, "kw")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStore_InsertBelowSequenceKeepsSequence(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(s.seqKey(), "10"))

	err := s.Update(ctx, func(tx encsearch.Tx) error {
		return tx.Insert(ctx, encsearch.EncryptedRecord{ID: 3, Ciphertext: []byte("x"), EqualityToken: "t"})
	})
	require.NoError(t, err)

	seq, err := mr.Get(s.seqKey())
	require.NoError(t, err)
	require.Equal(t, "10", seq)
}

func TestStore_TamperedDocumentExcluded(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	engine, err := encsearch.New(testKeys(), s)
	require.NoError(t, err)
	defer engine.Close()
	for _, f := range encsearch.SampleProducts() {
		_, err := engine.AddRecord(ctx, f)
		require.NoError(t, err)
	}

	env, err := encsearch.DecodeEnvelope(mr.HGet(s.docKey(5), fieldCiphertext))
	require.NoError(t, err)
	env[0] ^= 0x01
	mr.HSet(s.docKey(5), fieldCiphertext, encsearch.EncodeEnvelope(env))

	records, err := engine.SearchByEqualityField(ctx, "leather wallet")
	require.NoError(t, err)
	require.Empty(t, records)

	records, err = engine.SearchByKeyword(ctx, "leather")
	require.NoError(t, err)
	require.Empty(t, records)

	records, err = engine.SearchByKeyword(ctx, "accessories")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestStore_MalformedEqualityMember(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	_, err := mr.SAdd(s.equalityKey("tok"), "not-a-number")
	require.NoError(t, err)

	_, err = s.GetEquality(ctx, "tok")
	require.Error(t, err)
}
