package localauth_test

import (
	"context"
	"testing"
	"time"

	localauth "github.com/goliatone/go-localauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *localauth.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &localauth.User{
		ID:          uuid.New(),
		LoginID:     "alice1",
		DisplayName: "Alice",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSessionStoreWriteThrough(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()
	store := localauth.NewSessionStore(storage)

	user := testUser()
	require.NoError(t, store.SetCurrentUser(ctx, user))
	require.NoError(t, store.SetTokens(ctx, "access-token", "refresh-token"))

	// every mutation lands in storage immediately
	_, ok, err := storage.GetItem(ctx, localauth.StorageKeyCurrentUser)
	require.NoError(t, err)
	assert.True(t, ok)

	access, ok, err := storage.GetItem(ctx, localauth.StorageKeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-token", access)

	refresh, ok, err := storage.GetItem(ctx, localauth.StorageKeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-token", refresh)

	session := store.Get()
	assert.True(t, session.Authenticated())
	require.NotNil(t, session.CurrentUser)
	assert.Equal(t, user.ID, session.CurrentUser.ID)
}

func TestSessionStoreRestore(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()

	first := localauth.NewSessionStore(storage)
	user := testUser()
	require.NoError(t, first.SetCurrentUser(ctx, user))
	require.NoError(t, first.SetTokens(ctx, "access-token", "refresh-token"))

	// a second store over the same storage restores the full session block
	second := localauth.NewSessionStore(storage)
	require.NoError(t, second.Restore(ctx))

	session := second.Get()
	require.NotNil(t, session.CurrentUser)
	assert.Equal(t, user.ID, session.CurrentUser.ID)
	assert.Equal(t, "access-token", session.AccessToken)
	assert.Equal(t, "refresh-token", session.RefreshToken)
}

func TestSessionStoreClear(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()
	store := localauth.NewSessionStore(storage)

	require.NoError(t, store.SetCurrentUser(ctx, testUser()))
	require.NoError(t, store.SetTokens(ctx, "access-token", "refresh-token"))

	require.NoError(t, store.Clear(ctx))

	session := store.Get()
	assert.False(t, session.Authenticated())
	assert.Empty(t, session.AccessToken)
	assert.Empty(t, session.RefreshToken)

	for _, key := range []string{
		localauth.StorageKeyCurrentUser,
		localauth.StorageKeyAccessToken,
		localauth.StorageKeyRefreshToken,
	} {
		_, ok, err := storage.GetItem(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "expected %s to be removed", key)
	}
}

func TestSessionStoreRestoreCorruptedUser(t *testing.T) {
	ctx := context.Background()
	storage := localauth.NewMemoryStorage()

	require.NoError(t, storage.SetItem(ctx, localauth.StorageKeyCurrentUser, "{broken"))
	require.NoError(t, storage.SetItem(ctx, localauth.StorageKeyAccessToken, "access-token"))

	store := localauth.NewSessionStore(storage)
	require.NoError(t, store.Restore(ctx))

	session := store.Get()
	assert.Nil(t, session.CurrentUser)
	assert.Equal(t, "access-token", session.AccessToken)

	// the corrupted key is removed so the next load starts clean
	_, ok, err := storage.GetItem(ctx, localauth.StorageKeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := localauth.NewSessionStore(localauth.NewMemoryStorage())

	user := testUser()
	require.NoError(t, store.SetCurrentUser(ctx, user))

	session := store.Get()
	session.CurrentUser.DisplayName = "Mallory"

	assert.Equal(t, "Alice", store.Get().CurrentUser.DisplayName)
}
