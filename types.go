package localauth

import (
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetBcryptCost() int
}

// SimpleConfig is a plain struct Config implementation with sane defaults.
type SimpleConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c SimpleConfig) GetBcryptCost() int {
	if c.BcryptCost <= 0 {
		return DefaultBcryptCost
	}
	return c.BcryptCost
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] LOCALAUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] LOCALAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] LOCALAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] LOCALAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
