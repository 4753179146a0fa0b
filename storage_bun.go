package localauth

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// KVEntry is the persisted row for BunStorage.
type KVEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`
	Key           string    `bun:"key,pk" json:"key"`
	Value         string    `bun:"value,notnull" json:"value"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BunStorage persists items through Bun, one row per key. Writes go straight
// to the database; there is no batching, auth events are human-driven and the
// write volume is trivially low.
type BunStorage struct {
	db  *bun.DB
	now func() time.Time
}

type BunStorageOption func(*BunStorage)

// WithBunStorageClock injects a custom clock (useful for tests).
func WithBunStorageClock(clock func() time.Time) BunStorageOption {
	return func(s *BunStorage) {
		if clock != nil {
			s.now = clock
		}
	}
}

func NewBunStorage(db *bun.DB, opts ...BunStorageOption) *BunStorage {
	s := &BunStorage{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate creates the kv_entries table when missing.
func (s *BunStorage) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*KVEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create kv_entries table")
	}
	return nil
}

func (s *BunStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	entry := &KVEntry{}
	err := s.db.NewSelect().
		Model(entry).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read storage item")
	}

	return entry.Value, true, nil
}

func (s *BunStorage) SetItem(ctx context.Context, key, value string) error {
	entry := &KVEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now(),
	}

	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write storage item")
	}

	return nil
}

func (s *BunStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*KVEntry)(nil)).
		Where("?TableAlias.key = ?", key).
		Exec(ctx)

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove storage item")
	}

	return nil
}

var _ Storage = (*BunStorage)(nil)
