package mirror

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "mirror.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetRemove(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("lucid_leads")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("lucid_leads", `[{"id":"a"}]`))
	value, ok, err := store.Get("lucid_leads")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	require.NoError(t, store.Set("lucid_leads", `[]`))
	value, _, err = store.Get("lucid_leads")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Remove("lucid_leads"))
	require.NoError(t, store.Remove("lucid_leads"))
	_, ok, err = store.Get("lucid_leads")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SizeAndDetails(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set("lucid_comments_p1", "[]"))
	require.NoError(t, store.Set("lucid_comments_p2", "[]"))
	require.NoError(t, store.Set("lucid_projects", "[]"))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	details := store.Details()
	assert.Equal(t, "bolt", details["driver"])
	assert.Equal(t, 0, details["open_tx"])
	assert.GreaterOrEqual(t, details["tx"].(int), 1)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	store, err := Open(path, "collections")
	require.NoError(t, err)
	require.NoError(t, store.Set("lucid_tasks", `[{"id":"t1"}]`))
	require.NoError(t, store.Close())

	reopened, err := Open(path, "collections")
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("lucid_tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"t1"}]`, value)
}

func TestStore_NilIsNotOpen(t *testing.T) {
	var store *Store
	_, _, err := store.Get("x")
	assert.Error(t, err)
	assert.Error(t, store.Set("x", "y"))
	assert.Nil(t, store.Details())
	assert.NoError(t, store.Close())
}
