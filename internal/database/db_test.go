package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/stockgpt/models"
)

func stores(t *testing.T) map[string]models.KeyValueStore {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "stockgpt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]models.KeyValueStore{
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func TestKeyValueStore(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "k", []byte("v1")))
			require.NoError(t, store.Set(ctx, "k", []byte("v2")))

			v, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []byte("v2"), v)

			require.NoError(t, store.Delete(ctx, "k"))
			require.NoError(t, store.Delete(ctx, "k"))
			_, ok, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
			require.NoError(t, SetJSON(ctx, store, "user", want))

			var got models.User
			ok, err := GetJSON(ctx, store, "user", &got)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, got)

			require.NoError(t, store.Set(ctx, "broken", []byte("{not json")))
			ok, err = GetJSON(ctx, store, "broken", &got)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDBPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stockgpt.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "k", []byte("kept")))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("kept"), v)
}
