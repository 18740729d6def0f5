// Package storagetest holds the behavior every encsearch.Storage must show.
// Backends call Run from their own tests with a factory for empty stores.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/encsearch"
)

// Factory returns a fresh, empty Storage. It should register its own cleanup on t.
type Factory func(t *testing.T) encsearch.Storage

var errAbort = errors.New("storagetest: abort")

// Run exercises newStore against the Storage contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("NextIDEmpty", func(t *testing.T) { testNextIDEmpty(t, newStore(t)) })
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("DuplicateInsert", func(t *testing.T) { testDuplicateInsert(t, newStore(t)) })
	t.Run("Postings", func(t *testing.T) { testPostings(t, newStore(t)) })
	t.Run("Equality", func(t *testing.T) { testEquality(t, newStore(t)) })
	t.Run("Rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, newStore(t)) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, newStore(t)) })
	t.Run("ConcurrentIDs", func(t *testing.T) { testConcurrentIDs(t, newStore(t)) })
}

func record(id int64, token string) encsearch.EncryptedRecord {
	return encsearch.EncryptedRecord{
		ID:            id,
		Ciphertext:    []byte(fmt.Sprintf("ciphertext-%d\x00\xff", id)),
		EqualityToken: token,
	}
}

func insert(t *testing.T, s encsearch.Storage, rec encsearch.EncryptedRecord) {
	t.Helper()
	err := s.Update(context.Background(), func(tx encsearch.Tx) error {
		if err := tx.Insert(context.Background(), rec); err != nil {
			return err
		}
		return tx.PutEquality(context.Background(), rec.EqualityToken, rec.ID)
	})
	require.NoError(t, err)
}

func nextID(t *testing.T, s encsearch.Storage) int64 {
	t.Helper()
	var id int64
	err := s.Update(context.Background(), func(tx encsearch.Tx) error {
		var err error
		id, err = tx.NextID(context.Background())
		return err
	})
	require.NoError(t, err)
	return id
}

func testNextIDEmpty(t *testing.T, s encsearch.Storage) {
	require.Equal(t, int64(1), nextID(t, s))
}

func testInsertGet(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()
	insert(t, s, record(1, "aa"))
	insert(t, s, record(2, "bb"))

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, record(2, "bb"), got)

	require.Equal(t, int64(3), nextID(t, s))
}

func testGetMissing(t *testing.T, s encsearch.Storage) {
	_, err := s.Get(context.Background(), 99)
	require.ErrorIs(t, err, encsearch.ErrNotFound)
}

func testDuplicateInsert(t *testing.T, s encsearch.Storage) {
	insert(t, s, record(1, "aa"))
	err := s.Update(context.Background(), func(tx encsearch.Tx) error {
		return tx.Insert(context.Background(), record(1, "bb"))
	})
	require.ErrorIs(t, err, encsearch.ErrDuplicateRecord)

	got, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "aa", got.EqualityToken)
}

func testPostings(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()

	entries, err := s.GetKeyword(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, entries)

	err = s.Update(ctx, func(tx encsearch.Tx) error {
		for _, e := range [][]byte{[]byte("one"), []byte("two"), []byte("one")} {
			if err := tx.PutKeyword(ctx, "kw", e); err != nil {
				return err
			}
		}
		return tx.PutKeyword(ctx, "other", []byte{0x00, 0xff})
	})
	require.NoError(t, err)

	entries, err = s.GetKeyword(ctx, "kw")
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{[]byte("one"), []byte("two"), []byte("one")}, entries)

	entries, err = s.GetKeyword(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x00, 0xff}}, entries)
}

func testEquality(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()

	ids, err := s.GetEquality(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, ids)

	insert(t, s, record(1, "same"))
	insert(t, s, record(2, "other"))
	insert(t, s, record(3, "same"))

	ids, err = s.GetEquality(ctx, "same")
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 3}, ids)
}

func testRollback(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()
	insert(t, s, record(1, "aa"))

	err := s.Update(ctx, func(tx encsearch.Tx) error {
		if err := tx.Insert(ctx, record(2, "bb")); err != nil {
			return err
		}
		if err := tx.PutEquality(ctx, "bb", 2); err != nil {
			return err
		}
		if err := tx.PutKeyword(ctx, "kw", []byte("2")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = s.Get(ctx, 2)
	require.ErrorIs(t, err, encsearch.ErrNotFound)
	ids, err := s.GetEquality(ctx, "bb")
	require.NoError(t, err)
	require.Empty(t, ids)
	entries, err := s.GetKeyword(ctx, "kw")
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Equal(t, int64(2), nextID(t, s))
}

func testReadYourWrites(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()
	err := s.Update(ctx, func(tx encsearch.Tx) error {
		id, err := tx.NextID(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), id)

		require.NoError(t, tx.Insert(ctx, record(id, "aa")))
		got, err := tx.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, record(id, "aa"), got)

		next, err := tx.NextID(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(2), next)
		return nil
	})
	require.NoError(t, err)
}

func testConcurrentAppends(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(tx encsearch.Tx) error {
				return tx.PutKeyword(ctx, "shared", []byte(fmt.Sprintf("entry-%d", i)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := s.GetKeyword(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, entries, n, "no appended entry may be lost")
}

func testConcurrentIDs(t *testing.T, s encsearch.Storage) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(tx encsearch.Tx) error {
				id, err := tx.NextID(ctx)
				if err != nil {
					return err
				}
				return tx.Insert(ctx, record(id, "tok"))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for id := int64(1); id <= n; id++ {
		_, err := s.Get(ctx, id)
		require.NoError(t, err, "id %d", id)
	}
	require.Equal(t, int64(n+1), nextID(t, s))
}
