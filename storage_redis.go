package localauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage against a redis instance. Keys are written
// without TTL: token expiry is encoded in the token payload, the storage
// layer stays a dumb durable map.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

type RedisStorageOption func(*RedisStorage)

// WithRedisKeyPrefix namespaces every key, so several deployments can share
// one instance.
func WithRedisKeyPrefix(prefix string) RedisStorageOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{client: client, prefix: "localauth:"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if goerrors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read storage item")
	}

	return value, true, nil
}

func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write storage item")
	}
	return nil
}

func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove storage item")
	}
	return nil
}

var _ Storage = (*RedisStorage)(nil)
