// Package db provides the key/value stores that hold promptpad state.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/promptpad/internal/config"
)

// Store is a flat key/value store. Values are opaque bytes (JSON documents
// in practice) and every Set replaces the whole value.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Open creates the store selected by cfg.Store.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Store {
	case config.StoreSQLite, "":
		return OpenSQLite(ctx, cfg.SQLitePath)

	case config.StoreRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	case config.StoreSurrealDB:
		return NewClient(ctx, Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, log)

	case config.StoreMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store)
	}
}
