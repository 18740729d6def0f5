package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ai8future/encsearch"
	"github.com/ai8future/encsearch/config"
	"github.com/ai8future/encsearch/redisstore"
	"github.com/ai8future/encsearch/sqlstore"
)

// openStorage connects to the configured backend. The returned func releases it.
func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (encsearch.Storage, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return encsearch.NewMemoryStore(), func() error { return nil }, nil
	case config.BackendSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLite.Path, sqlOptions(cfg.SQLite.TablePrefix, logger)...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.Postgres.DSN, sqlOptions(cfg.Postgres.TablePrefix, logger)...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		opts := []redisstore.Option{redisstore.WithLogger(logger)}
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, redisstore.WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		s, err := redisstore.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown storage backend %q", encsearch.ErrConfiguration, cfg.Backend)
}

func sqlOptions(prefix string, logger *zap.Logger) []sqlstore.Option {
	opts := []sqlstore.Option{sqlstore.WithLogger(logger)}
	if prefix != "" {
		opts = append(opts, sqlstore.WithTablePrefix(prefix))
	}
	return opts
}

// resetStorage empties a SQL store before seeding.
func resetStorage(ctx context.Context, store encsearch.Storage) error {
	s, ok := store.(*sqlstore.Store)
	if !ok {
		return fmt.Errorf("%w: -reset needs a sqlite or postgres backend", encsearch.ErrConfiguration)
	}
	if err := s.DropSchema(ctx); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}
