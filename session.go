package localauth

import (
	"context"
	"encoding/json"
	"sync"
)

// Session is the process-wide "who is logged in right now" snapshot.
type Session struct {
	CurrentUser  *User  `json:"current_user,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Authenticated reports whether the session carries a current user.
func (s Session) Authenticated() bool {
	return s.CurrentUser != nil
}

// SessionStore holds the single current-user pointer and the active token
// pair. Every mutation is written through to storage immediately; there is no
// batching and no debounce, correctness over throughput.
type SessionStore struct {
	storage Storage
	logger  Logger

	mu      sync.RWMutex
	session Session
}

type SessionStoreOption func(*SessionStore)

// WithSessionLogger overrides the store logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSessionStore(storage Storage, opts ...SessionStoreOption) *SessionStore {
	store := &SessionStore{
		storage: storage,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// Get returns a copy of the current session.
func (s *SessionStore) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.session
	if session.CurrentUser != nil {
		user := *session.CurrentUser
		session.CurrentUser = &user
	}
	return session
}

// SetCurrentUser replaces the current user pointer. nil clears it.
func (s *SessionStore) SetCurrentUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.CurrentUser = user

	if user == nil {
		return s.storage.RemoveItem(ctx, StorageKeyCurrentUser)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.storage.SetItem(ctx, StorageKeyCurrentUser, string(raw))
}

// SetTokens replaces the active token pair.
func (s *SessionStore) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.AccessToken = access
	s.session.RefreshToken = refresh

	if err := s.storage.SetItem(ctx, StorageKeyAccessToken, access); err != nil {
		return err
	}
	return s.storage.SetItem(ctx, StorageKeyRefreshToken, refresh)
}

// Clear empties the session and removes every persisted session key.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}

	var firstErr error
	for _, key := range []string{StorageKeyCurrentUser, StorageKeyAccessToken, StorageKeyRefreshToken} {
		if err := s.storage.RemoveItem(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Restore loads the persisted session block. A current-user payload that
// fails to deserialize is logged, proactively removed so the next load does
// not trip over it again, and treated as an empty session.
func (s *SessionStore) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}

	if raw, ok, err := s.storage.GetItem(ctx, StorageKeyCurrentUser); err != nil {
		return err
	} else if ok && raw != "" {
		user := &User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			s.logger.Warn("persisted current user is corrupted, clearing it", "error", err)
			if err := s.storage.RemoveItem(ctx, StorageKeyCurrentUser); err != nil {
				s.logger.Error("failed to remove corrupted current user", "error", err)
			}
		} else {
			s.session.CurrentUser = user
		}
	}

	if raw, ok, err := s.storage.GetItem(ctx, StorageKeyAccessToken); err != nil {
		return err
	} else if ok {
		s.session.AccessToken = raw
	}

	if raw, ok, err := s.storage.GetItem(ctx, StorageKeyRefreshToken); err != nil {
		return err
	} else if ok {
		s.session.RefreshToken = raw
	}

	return nil
}
