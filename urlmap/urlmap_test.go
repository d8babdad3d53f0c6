package urlmap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bignyap/s3filestore/database"
	"github.com/bignyap/s3filestore/memcache"
	"github.com/bignyap/s3filestore/urlmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store urlmap.Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Record(ctx, "abc123", "data.csv"))
	name, found, err := store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "data.csv", name)

	require.NoError(t, store.Record(ctx, "abc123", "other.csv"))
	name, _, err = store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "other.csv", name)

	require.NoError(t, store.Remove(ctx, "abc123"))
	_, found, err = store.Lookup(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing a missing id is not an error
	assert.NoError(t, store.Remove(ctx, "missing"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, urlmap.NewMemory(memcache.New(memcache.Config{})))
}

func TestSQL_SQLite(t *testing.T) {
	conn, err := database.NewConnectionFromConfig(database.DatabaseConfig{
		Driver: "sqlite3",
		Name:   filepath.Join(t.TempDir(), "urlmap.db"),
	})
	require.NoError(t, err)
	require.NoError(t, conn.Connect(context.Background()))
	require.NoError(t, conn.Migrate(context.Background()))

	store, err := urlmap.NewSQL(conn)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestNewSQL_NotConnected(t *testing.T) {
	conn, err := database.NewConnection(database.SQLiteDriver, &database.ConnectionString{Database: ":memory:"}, nil)
	require.NoError(t, err)

	_, err = urlmap.NewSQL(conn)
	assert.ErrorContains(t, err, "not connected")
}

func TestOpen(t *testing.T) {
	store, err := urlmap.Open(context.Background(), "none")
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = urlmap.Open(context.Background(), "memory")
	require.NoError(t, err)
	assert.IsType(t, &urlmap.Memory{}, store)

	_, err = urlmap.Open(context.Background(), "etcd")
	assert.ErrorContains(t, err, "unsupported url map backend")
}
