package localauth_test

import (
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	localauth "github.com/goliatone/go-localauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hasher := localauth.NewBcryptHasher(4)

	hash, err := hasher.HashPassword("Password123")
	require.NoError(t, err)

	assert.NotEmpty(t, hash)
	assert.NotContains(t, hash, "Password123")
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "expected a bcrypt hash, got %q", hash)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	hasher := localauth.NewBcryptHasher(4)

	_, err := hasher.HashPassword("")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, localauth.TextCodeEmptyPassword, richErr.TextCode)
}

func TestComparePasswordAndHash(t *testing.T) {
	hasher := localauth.NewBcryptHasher(4)

	hash, err := hasher.HashPassword("Secret123")
	require.NoError(t, err)

	assert.NoError(t, hasher.ComparePasswordAndHash("Secret123", hash))

	err = hasher.ComparePasswordAndHash("wrong", hash)
	assert.ErrorIs(t, err, localauth.ErrInvalidCredentials)
}

func TestVerifyPassword(t *testing.T) {
	hasher := localauth.NewBcryptHasher(4)

	hash, err := hasher.HashPassword("Secret123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		expected bool
	}{
		{
			name:     "matching password",
			password: "Secret123",
			hash:     hash,
			expected: true,
		},
		{
			name:     "wrong password",
			password: "Secret124",
			hash:     hash,
			expected: false,
		},
		{
			name:     "malformed hash is swallowed",
			password: "Secret123",
			hash:     "not-a-bcrypt-hash",
			expected: false,
		},
		{
			name:     "empty hash is swallowed",
			password: "Secret123",
			hash:     "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasher.VerifyPassword(tt.password, tt.hash))
		})
	}
}

func TestBcryptHasherClampsCost(t *testing.T) {
	// an out-of-range cost must not panic, it falls back to the default
	hasher := localauth.NewBcryptHasher(99)

	hash, err := hasher.HashPassword("Password123")
	require.NoError(t, err)
	assert.True(t, hasher.VerifyPassword("Password123", hash))
}
