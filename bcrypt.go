package localauth

import (
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is deliberately slow; hashing is the only await point in
// a register or login call.
const DefaultBcryptCost = 12

// BcryptHasher implements PasswordAuthenticator on top of bcrypt.
type BcryptHasher struct {
	cost   int
	logger Logger
}

// NewBcryptHasher creates a hasher with the given cost. Values outside the
// bcrypt range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost, logger: defLogger{}}
}

func (h *BcryptHasher) WithLogger(logger Logger) *BcryptHasher {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// HashPassword will generate a password hash
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", goerrors.Wrap(err, ErrHashingFailure.Category, ErrHashingFailure.Message).
			WithTextCode(ErrHashingFailure.TextCode)
	}

	return string(out), nil
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password
func (h *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// VerifyPassword never errors outward: a malformed hash or a primitive
// failure is logged and treated as "no match".
func (h *BcryptHasher) VerifyPassword(password, hash string) bool {
	err := h.ComparePasswordAndHash(password, hash)
	if err == nil {
		return true
	}

	if !goerrors.Is(err, ErrInvalidCredentials) {
		h.logger.Warn("password verification failed for a reason other than mismatch", "error", err)
	}

	return false
}

var _ PasswordAuthenticator = (*BcryptHasher)(nil)

var defaultHasher = NewBcryptHasher(DefaultBcryptCost)

// HashPassword hashes with the package default cost.
func HashPassword(password string) (string, error) {
	return defaultHasher.HashPassword(password)
}

// ComparePasswordAndHash validates cleartext against a hash using the package
// default hasher.
func ComparePasswordAndHash(password, hash string) error {
	return defaultHasher.ComparePasswordAndHash(password, hash)
}
