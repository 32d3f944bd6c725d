package local_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/storage/local"
	"github.com/trezcool/masomo-portal/tests"
)

func testStorage(t *testing.T, store core.Storage) {
	var changes []core.StorageChange
	unsubscribe := store.Watch(func(c core.StorageChange) { changes = append(changes, c) })

	_, ok, err := store.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("token", "abc"))
	v, ok, err := store.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, store.Remove("token"))
	require.NoError(t, store.Remove("token")) // missing key: no error, no event
	_, ok, _ = store.Get("token")
	assert.False(t, ok)

	assert.Equal(t, []core.StorageChange{
		{Key: "token", Value: "abc"},
		{Key: "token", Removed: true},
	}, changes)

	unsubscribe()
	require.NoError(t, store.Set("other", "x"))
	assert.Len(t, changes, 2)
}

func TestMemory(t *testing.T) {
	testStorage(t, testutil.NewStorage())
}

func TestFile(t *testing.T) {
	conf := testutil.NewConfig(t)
	conf.Storage.Path = t.TempDir()

	store, err := local.NewFile(conf, testutil.NopLogger{})
	require.NoError(t, err)
	testStorage(t, store)

	t.Run("persists across instances", func(t *testing.T) {
		require.NoError(t, store.Set("settings", `{"theme":"dark"}`))

		reopened, err := local.NewFile(conf, testutil.NopLogger{})
		require.NoError(t, err)
		v, ok, err := reopened.Get("settings")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"theme":"dark"}`, v)
	})

	t.Run("other handles are not watched", func(t *testing.T) {
		require.NoError(t, store.Set("token", "abc"))
		other, err := local.NewFile(conf, testutil.NopLogger{})
		require.NoError(t, err)

		var changes []core.StorageChange
		unsubscribe := store.Watch(func(c core.StorageChange) { changes = append(changes, c) })
		defer unsubscribe()

		require.NoError(t, other.Remove("token"))
		assert.Empty(t, changes)
		v, ok, err := store.Get("token")
		require.NoError(t, err)
		assert.True(t, ok, "read once at open")
		assert.Equal(t, "abc", v)

		reopened, err := local.NewFile(conf, testutil.NopLogger{})
		require.NoError(t, err)
		_, ok, err = reopened.Get("token")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))
		_, err := local.NewFile(conf, testutil.NopLogger{})
		assert.Error(t, err)
	})
}

func TestWatcherMayWriteBack(t *testing.T) {
	store := testutil.NewStorage()
	store.Watch(func(c core.StorageChange) {
		if c.Key == "token" && c.Removed {
			_ = store.Remove("user")
		}
	})
	require.NoError(t, store.Set("token", "abc"))
	require.NoError(t, store.Set("user", "{}"))
	require.NoError(t, store.Remove("token"))

	_, ok, _ := store.Get("user")
	assert.False(t, ok)
}
