package localauth

import (
	"encoding/base64"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenKind discriminates the two token roles.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenPayload is the decoded content of a bearer token. ExpiresAt is epoch
// milliseconds.
type TokenPayload struct {
	Subject   uuid.UUID `json:"sub"`
	Kind      TokenKind `json:"kind"`
	ExpiresAt int64     `json:"exp"`
}

// ExpiresAtTime returns the expiry as a time.Time.
func (p TokenPayload) ExpiresAtTime() time.Time {
	return time.UnixMilli(p.ExpiresAt)
}

// TokenCodec encodes and decodes self-contained bearer tokens. The encoding
// is base64url over JSON with no integrity signature: possession implies
// authority, and anyone with storage access can forge a token. Decoding
// authority is same-origin trust only.
type TokenCodec struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     Logger
}

type TokenCodecOption func(*TokenCodec)

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithAccessTokenTTL overrides the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) TokenCodecOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.accessTTL = ttl
		}
	}
}

// WithRefreshTokenTTL overrides the refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) TokenCodecOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.refreshTTL = ttl
		}
	}
}

// WithTokenLogger overrides the codec logger.
func WithTokenLogger(logger Logger) TokenCodecOption {
	return func(c *TokenCodec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewTokenCodec creates a codec with the default TTLs (15 minutes access,
// 7 days refresh).
func NewTokenCodec(opts ...TokenCodecOption) *TokenCodec {
	c := &TokenCodec{
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// NewTokenCodecFromConfig builds a codec using the TTLs from cfg.
func NewTokenCodecFromConfig(cfg Config, opts ...TokenCodecOption) *TokenCodec {
	base := []TokenCodecOption{
		WithAccessTokenTTL(cfg.GetAccessTokenTTL()),
		WithRefreshTokenTTL(cfg.GetRefreshTokenTTL()),
	}
	return NewTokenCodec(append(base, opts...)...)
}

// TTL returns the lifetime applied to tokens of the given kind.
func (c *TokenCodec) TTL(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue serializes a token bound to subject expiring TTL(kind) from now.
func (c *TokenCodec) Issue(subject uuid.UUID, kind TokenKind) (string, error) {
	if subject == uuid.Nil {
		return "", goerrors.New("token subject must not be nil", goerrors.CategoryBadInput)
	}

	if kind != TokenKindAccess && kind != TokenKindRefresh {
		return "", goerrors.New("unknown token kind", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"kind": string(kind)})
	}

	payload := TokenPayload{
		Subject:   subject,
		Kind:      kind,
		ExpiresAt: c.now().Add(c.TTL(kind)).UnixMilli(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize token payload")
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode returns the payload, or nil when the token is malformed or expired.
// The two outcomes are indistinguishable to the caller; downstream logic does
// not need to tell them apart, and callers that do must not rely on this
// codec alone. A token whose expiry equals the current instant is expired.
func (c *TokenCodec) Decode(token string) *TokenPayload {
	if token == "" {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		c.logger.Debug("token decode failed", "error", err)
		return nil
	}

	payload := &TokenPayload{}
	if err := json.Unmarshal(raw, payload); err != nil {
		c.logger.Debug("token payload unmarshal failed", "error", err)
		return nil
	}

	if payload.Subject == uuid.Nil {
		return nil
	}

	if payload.Kind != TokenKindAccess && payload.Kind != TokenKindRefresh {
		return nil
	}

	if payload.ExpiresAt <= c.now().UnixMilli() {
		return nil
	}

	return payload
}
