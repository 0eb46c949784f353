package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorsanmartin/ferromart-backend/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.StorageConfig{
		RootDir:       t.TempDir(),
		PublicBaseURL: "/static/",
	})
	require.NoError(t, err)
	return store
}

func TestSaveAndExists(t *testing.T) {
	store := newTestStore(t)

	key := "products/abc/original.jpg"
	require.NoError(t, store.Save(key, []byte("blob")))

	ok, err := store.Exists(key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists("products/abc/missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSize(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("a/b.jpg", []byte("12345")))
	size, err := store.Size("a/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("x.jpg", []byte("data")))
	require.NoError(t, store.Delete("x.jpg"))
	require.NoError(t, store.Delete("x.jpg"))

	ok, err := store.Exists("x.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestURL(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, "/static/products/a/thumb.jpg", store.URL("products/a/thumb.jpg"))
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(config.StorageConfig{RootDir: root, PublicBaseURL: "/static"})
	require.NoError(t, err)

	require.NoError(t, store.Save("../escape.jpg", []byte("data")))

	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.jpg"))
	assert.True(t, os.IsNotExist(err), "traversal key must stay inside the root")

	ok, err := store.Exists("escape.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save("", []byte("data")))
}
