package database_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/storage/database"
	"github.com/trezcool/masomo-portal/tests"
)

// Requires a postgres database: TEST_STORAGE_DSN=postgres://... go test ./storage/database
func TestKVStore(t *testing.T) {
	dsn := os.Getenv("TEST_STORAGE_DSN")
	if dsn == "" {
		t.Skip("TEST_STORAGE_DSN not set")
	}
	conf := testutil.NewConfig(t)
	conf.Storage.DSN = dsn
	conf.Storage.Namespace = "test-" + t.Name()

	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	defer func() { _, _ = db.Exec(`DELETE FROM kv_store WHERE namespace = $1`, conf.Storage.Namespace) }()

	store := database.NewKVStore(db, conf, testutil.NopLogger{})
	var removed []string
	store.Watch(func(c core.StorageChange) {
		if c.Removed {
			removed = append(removed, c.Key)
		}
	})

	require.NoError(t, store.Set("b", "1"))
	require.NoError(t, store.Set("a", "2"))
	require.NoError(t, store.Set("b", "3"))

	v, ok, err := store.Get("b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Remove("a"))
	require.NoError(t, store.Remove("a"))
	_, ok, err = store.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, removed)
}
