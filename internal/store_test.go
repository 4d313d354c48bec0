package internal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]Store{
		"file":   fileStore,
		"memory": NewMemoryStore(),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(KeyAuthToken, "t1"))
			require.NoError(t, store.Set(KeyAuthToken, "t2"))
			value, ok, err := store.Get(KeyAuthToken)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "t2", value, "last write wins")

			require.NoError(t, store.Set(EditKey("uploads/a b"), `["x"]`))
			value, ok, err = store.Get(EditKey("uploads/a b"))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `["x"]`, value)

			require.NoError(t, store.Delete(KeyAuthToken))
			_, ok, err = store.Get(KeyAuthToken)
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, store.Delete("never-set"))
		})
	}
}

func TestFileStoreStaysInDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("../escape", "v"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
}
