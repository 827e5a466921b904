package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behavior every Store implementation must share.
func exerciseStore(t *testing.T, store db.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "does-not-exist")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "sessions", []byte(`[{"id":"a"}]`)))
		got, err := store.Get(ctx, "sessions")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"a"}]`, string(got))
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "active_session_id", []byte("first")))
		require.NoError(t, store.Set(ctx, "active_session_id", []byte("second")))
		got, err := store.Get(ctx, "active_session_id")
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k1", []byte("one")))
		require.NoError(t, store.Set(ctx, "k2", []byte("two")))
		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "one", string(got))
	})

	t.Run("multiline unicode value", func(t *testing.T) {
		value := "# System Prompt\nYou are a helpful assistant. ✓"
		require.NoError(t, store.Set(ctx, "content", []byte(value)))
		got, err := store.Get(ctx, "content")
		require.NoError(t, err)
		assert.Equal(t, value, string(got))
	})
}

func TestMemoryStore(t *testing.T) {
	store := db.NewMemoryStore()
	exerciseStore(t, store)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, store.Close(ctx))

	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v")), db.ErrClosed)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, db.ErrClosed)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer store.Close(ctx)

	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err, "should create parent directories")
	require.NoError(t, store.Set(ctx, "sessions", []byte("[]")))
	require.NoError(t, store.Close(ctx))

	reopened, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, err := reopened.Get(ctx, "sessions")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := db.Open(ctx, config.Config{Store: config.StoreMemory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &db.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := db.Open(ctx, config.Config{
			Store:      config.StoreSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "state.db"),
		}, nil)
		require.NoError(t, err)
		defer store.Close(ctx)
		assert.IsType(t, &db.SQLiteStore{}, store)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := db.Open(ctx, config.Config{Store: "etcd"}, nil)
		assert.ErrorContains(t, err, "unsupported store backend")
	})
}
