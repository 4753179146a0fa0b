package localauth

import (
	"context"
	"sync"
)

// Persisted key layout. Three independent namespaces: the user collection,
// the session block, and the individually keyed token strings.
const (
	StorageKeyUsers        = "users"
	StorageKeyCurrentUser  = "currentUser"
	StorageKeyAccessToken  = "accessToken"
	StorageKeyRefreshToken = "refreshToken"
)

// Storage is the durable key-value contract every backend satisfies. Values
// are opaque strings; callers own serialization.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemoryStorage is a map-backed Storage. It is the test double and the
// ephemeral-session backend; nothing survives process exit.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: map[string]string{}}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	return value, ok, nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ Storage = (*MemoryStorage)(nil)
