package storagetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/encsearch"
)

// RunEngine ingests the sample catalog into a store from newStore and checks
// the keyword and equality queries an Engine answers over it.
func RunEngine(t *testing.T, newStore Factory) {
	ctx := context.Background()
	ks := encsearch.NewStaticKeyStore(
		bytes.Repeat([]byte{0x01}, encsearch.KeySize),
		bytes.Repeat([]byte{0x02}, encsearch.KeySize),
		bytes.Repeat([]byte{0x03}, encsearch.KeySize),
	)
	t.Cleanup(ks.Close)

	engine, err := encsearch.New(ks, newStore(t))
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	for i, f := range encsearch.SampleProducts() {
		id, err := engine.AddRecord(ctx, f)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), id)
	}

	keyword := func(q string) []int64 {
		t.Helper()
		records, err := engine.SearchByKeyword(ctx, q)
		require.NoError(t, err)
		return ids(records)
	}
	equality := func(q string) []int64 {
		t.Helper()
		records, err := engine.SearchByEqualityField(ctx, q)
		require.NoError(t, err)
		return ids(records)
	}

	require.ElementsMatch(t, []int64{3, 8}, keyword("running"))
	require.ElementsMatch(t, []int64{3, 8}, keyword("shoes"))
	require.ElementsMatch(t, []int64{1}, keyword("LAPTOP"))
	require.ElementsMatch(t, []int64{1, 2, 4, 6, 9}, keyword("electronics"))
	require.Empty(t, keyword("xyz"))

	require.Equal(t, []int64{5}, equality("leather wallet"))
	require.Equal(t, []int64{5}, equality("LEATHER WALLET"))
	require.Empty(t, equality("Leather Wallets"))

	records, err := engine.SearchByEqualityField(ctx, "Running Shoes - SpeedX")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, encsearch.Record{
		ID:          3,
		Name:        "Running Shoes - SpeedX",
		Description: "Comfortable running shoes for daily training",
		Category:    "Footwear",
		Price:       120,
	}, records[0])
}

func ids(records []encsearch.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
