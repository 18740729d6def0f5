package sqlstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/encsearch"
	"github.com/ai8future/encsearch/sqlstore"
	"github.com/ai8future/encsearch/storagetest"
)

// openPostgres connects to ENCSEARCH_PG_DSN with a table prefix unique to t.
func openPostgres(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := os.Getenv("ENCSEARCH_PG_DSN")
	if dsn == "" {
		t.Skip("ENCSEARCH_PG_DSN not set")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("t%d_", time.Now().UnixNano())
	s, err := sqlstore.OpenPostgres(ctx, dsn, sqlstore.WithTablePrefix(prefix))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DropSchema(context.Background())
		_ = s.Close()
	})
	return s
}

func TestPostgres_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) encsearch.Storage {
		return openPostgres(t)
	})
}

func TestPostgres_Engine(t *testing.T) {
	storagetest.RunEngine(t, func(t *testing.T) encsearch.Storage {
		return openPostgres(t)
	})
}
