package localauth

import (
	"github.com/goliatone/go-errors"
)

// Text codes exposed so callers can switch on failure kind without string
// matching on messages.
const (
	TextCodeValidation       = "VALIDATION_ERROR"
	TextCodeUserExists       = "USER_ALREADY_EXISTS"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeInvalidRefresh   = "INVALID_REFRESH_TOKEN"
	TextCodeUnauthorized     = "UNAUTHORIZED"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeHashingFailure   = "HASHING_FAILURE"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodeStorageCorrupted = "STORAGE_CORRUPTED"
)

// ErrUserAlreadyExists is returned when a register call reuses a login id.
var ErrUserAlreadyExists = errors.New("a user with that login id already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials covers both an unknown login id and a mismatched
// password. The two cases are deliberately indistinguishable so error
// messages cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRefreshToken covers a missing, malformed, expired, wrong-kind, or
// orphaned refresh token. An orphaned token (subject no longer exists) is
// reported identically on purpose.
var ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidRefresh).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is returned when an operation requires an authenticated
// session and none exists.
var ErrUnauthorized = errors.New("operation requires an authenticated session", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when an operation targets a user record that no
// longer exists.
var ErrUserNotFound = errors.New("user record not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrHashingFailure signals the password hashing primitive failed. Fatal for
// the registration attempt; there is no fallback to plaintext.
var ErrHashingFailure = errors.New("password hashing failed", errors.CategoryInternal).
	WithTextCode(TextCodeHashingFailure).
	WithCode(errors.CodeInternal)

// ErrNoEmptyPassword rejects empty plaintext before it reaches bcrypt.
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrStorageCorrupted marks persisted state that failed to deserialize. It is
// internal: Initialize logs it, clears the offending keys, and reports "not
// authenticated" instead of letting it escape.
var ErrStorageCorrupted = errors.New("persisted state is corrupted", errors.CategoryInternal).
	WithTextCode(TextCodeStorageCorrupted)

// newValidationError wraps an ozzo validation result in the shared taxonomy.
func newValidationError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryValidation, "invalid input").
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest)
}

// IsValidationError reports whether err carries the validation text code.
func IsValidationError(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeValidation
}

// IsStorageCorrupted reports whether err marks an unreadable persisted blob.
func IsStorageCorrupted(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeStorageCorrupted
}
