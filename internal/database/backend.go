package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/store"
)

// Backend is the slot store selected by STORE_DRIVER together with the
// connections the background workers need.
type Backend struct {
	Store store.SlotStore
	// Redis is set for the redis and tiered drivers.
	Redis *redis.Client
	// Mirror is set for the tiered driver; SlotMirrorWorker drains into it.
	Mirror store.SlotStore

	closers []func()
}

// Open connects the configured driver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.StoreDriver {
	case config.StoreMemory:
		b.Store = store.NewMemoryStore()

	case config.StoreFile:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		b.Store = fs

	case config.StoreSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			path = filepath.Join(cfg.DataDir, "cbt.db")
		}
		ss, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { ss.Close() })
		b.Store = ss

	case config.StoreRedis:
		rdb, err := NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { rdb.Close() })
		b.Redis = rdb
		b.Store = store.NewRedisStore(rdb)

	case config.StorePostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.Store = store.NewPostgresStore(pool)

	case config.StoreTiered:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		rdb, err := NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { rdb.Close() })

		b.Redis = rdb
		b.Mirror = store.NewPostgresStore(pool)
		b.Store = store.NewTieredStore(rdb, b.Mirror, log)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	log.Info().Str("driver", cfg.StoreDriver).Msg("Slot store ready")
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
