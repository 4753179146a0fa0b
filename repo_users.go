package localauth

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Users is the CRUD contract over the persisted user collection. Lookups
// return nil without error when no record matches; login-id uniqueness is a
// business rule and lives in the Auther, not here.
type Users interface {
	Create(ctx context.Context, loginID, password, displayName string) (*StoredUser, error)
	FindByLoginID(ctx context.Context, loginID string) (*StoredUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*StoredUser, error)
	Update(ctx context.Context, id uuid.UUID, displayName string) (*StoredUser, error)
	Count(ctx context.Context) (int, error)
	Remove(ctx context.Context, id uuid.UUID) (bool, error)
	Reset(ctx context.Context) error
}

type users struct {
	storage Storage
	hasher  PasswordAuthenticator
	now     func() time.Time
	key     string
	logger  Logger
	mu      sync.Mutex
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

// WithUsersClock injects a custom clock (useful for tests).
func WithUsersClock(clock func() time.Time) UsersOption {
	return func(u *users) {
		if clock != nil {
			u.now = clock
		}
	}
}

// WithUsersHasher overrides the password hasher.
func WithUsersHasher(hasher PasswordAuthenticator) UsersOption {
	return func(u *users) {
		if hasher != nil {
			u.hasher = hasher
		}
	}
}

// WithUsersLogger overrides the repository logger.
func WithUsersLogger(logger Logger) UsersOption {
	return func(u *users) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithUsersStorageKey overrides the key the collection is persisted under.
func WithUsersStorageKey(key string) UsersOption {
	return func(u *users) {
		if key != "" {
			u.key = key
		}
	}
}

func NewUsersRepository(storage Storage, opts ...UsersOption) Users {
	repo := &users{
		storage: storage,
		hasher:  defaultHasher,
		now:     time.Now,
		key:     StorageKeyUsers,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo
}

func (u *users) Create(ctx context.Context, loginID, password, displayName string) (*StoredUser, error) {
	hash, err := u.hasher.HashPassword(password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, ErrHashingFailure.Category, ErrHashingFailure.Message).
			WithTextCode(ErrHashingFailure.TextCode)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return nil, err
	}

	now := u.now()
	record := StoredUser{
		User: User{
			ID:          uuid.New(),
			LoginID:     loginID,
			DisplayName: displayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: hash,
	}

	records = append(records, record)
	if err := u.save(ctx, records); err != nil {
		return nil, err
	}

	return &record, nil
}

func (u *users) FindByLoginID(ctx context.Context, loginID string) (*StoredUser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return nil, err
	}

	// exact, case-sensitive match
	for i := range records {
		if records[i].LoginID == loginID {
			record := records[i]
			return &record, nil
		}
	}

	return nil, nil
}

func (u *users) FindByID(ctx context.Context, id uuid.UUID) (*StoredUser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID == id {
			record := records[i]
			return &record, nil
		}
	}

	return nil, nil
}

// Update merges the mutable fields and refreshes UpdatedAt. An unknown id is
// a no-op returning nil, not an error.
func (u *users) Update(ctx context.Context, id uuid.UUID, displayName string) (*StoredUser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}

		if displayName != "" {
			records[i].DisplayName = displayName
		}
		records[i].UpdatedAt = u.now()

		if err := u.save(ctx, records); err != nil {
			return nil, err
		}

		record := records[i]
		return &record, nil
	}

	return nil, nil
}

func (u *users) Count(ctx context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return 0, err
	}

	return len(records), nil
}

// Remove deletes a record by id, reporting whether anything was removed.
// There is no cascading session cleanup here; a session still pointing at the
// removed id surfaces as an invalid refresh token downstream.
func (u *users) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	records, err := u.load(ctx)
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}

		records = append(records[:i], records[i+1:]...)
		if err := u.save(ctx, records); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

// Reset drops the whole persisted collection. This is the recovery path for a
// collection blob that no longer deserializes: remove it so the next load
// starts clean.
func (u *users) Reset(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.storage.RemoveItem(ctx, u.key)
}

func (u *users) load(ctx context.Context) ([]StoredUser, error) {
	raw, ok, err := u.storage.GetItem(ctx, u.key)
	if err != nil {
		return nil, err
	}

	if !ok || raw == "" {
		return nil, nil
	}

	var records []StoredUser
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		u.logger.Error("user collection failed to deserialize", "error", err)
		return nil, goerrors.Wrap(err, ErrStorageCorrupted.Category, ErrStorageCorrupted.Message).
			WithTextCode(ErrStorageCorrupted.TextCode).
			WithMetadata(map[string]any{"key": u.key})
	}

	return records, nil
}

func (u *users) save(ctx context.Context, records []StoredUser) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize user collection")
	}

	return u.storage.SetItem(ctx, u.key, string(raw))
}
