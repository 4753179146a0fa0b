package localauth_test

import (
	"context"
	"os"
	"testing"
	"time"

	localauth "github.com/goliatone/go-localauth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a redis client for testing.
// Tests are skipped when redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStorageRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	storage := localauth.NewRedisStorage(client, localauth.WithRedisKeyPrefix("localauth-test:"))
	t.Cleanup(func() { storage.RemoveItem(ctx, "alpha") })

	_, ok, err := storage.GetItem(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.SetItem(ctx, "alpha", "one"))

	value, ok, err := storage.GetItem(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", value)

	require.NoError(t, storage.SetItem(ctx, "alpha", "two"))

	value, _, err = storage.GetItem(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestRedisStorageRemove(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	storage := localauth.NewRedisStorage(client, localauth.WithRedisKeyPrefix("localauth-test:"))

	require.NoError(t, storage.SetItem(ctx, "beta", "one"))
	require.NoError(t, storage.RemoveItem(ctx, "beta"))

	_, ok, err := storage.GetItem(ctx, "beta")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing an absent key is not an error
	require.NoError(t, storage.RemoveItem(ctx, "beta"))
}

func TestRedisStorageKeyPrefix(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	one := localauth.NewRedisStorage(client, localauth.WithRedisKeyPrefix("localauth-test-a:"))
	two := localauth.NewRedisStorage(client, localauth.WithRedisKeyPrefix("localauth-test-b:"))
	t.Cleanup(func() {
		one.RemoveItem(ctx, "gamma")
		two.RemoveItem(ctx, "gamma")
	})

	require.NoError(t, one.SetItem(ctx, "gamma", "first"))
	require.NoError(t, two.SetItem(ctx, "gamma", "second"))

	// same key, different namespaces
	value, ok, err := one.GetItem(ctx, "gamma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", value)

	value, ok, err = two.GetItem(ctx, "gamma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", value)

	// the raw key carries the prefix on the wire
	raw, err := client.Get(ctx, "localauth-test-a:gamma").Result()
	require.NoError(t, err)
	assert.Equal(t, "first", raw)
}
