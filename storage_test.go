package localauth_test

import (
	"context"
	"testing"

	localauth "github.com/goliatone/go-localauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()

	_, ok, err := storage.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetItem(ctx, "users", "[]"))

	value, ok, err := storage.GetItem(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	require.NoError(t, storage.SetItem(ctx, "users", `[{"id":"x"}]`))

	value, ok, err = storage.GetItem(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"x"}]`, value)
	assert.Equal(t, 1, storage.Len())

	require.NoError(t, storage.RemoveItem(ctx, "users"))

	_, ok, err = storage.GetItem(ctx, "users")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing an absent key is not an error
	require.NoError(t, storage.RemoveItem(ctx, "users"))
}

func TestMemoryStorageEmptyValueIsStored(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()

	require.NoError(t, storage.SetItem(ctx, "accessToken", ""))

	value, ok, err := storage.GetItem(ctx, "accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, value)
}
