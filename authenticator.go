package localauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Authenticator holds the operations consumed by presentation collaborators.
type Authenticator interface {
	Initialize(ctx context.Context) *User
	Register(ctx context.Context, loginID, password, displayName string) (*AuthResult, error)
	Login(ctx context.Context, loginID, password string) (*AuthResult, error)
	Logout(ctx context.Context)
	Refresh(ctx context.Context) (*AuthResult, error)
	UpdateProfile(ctx context.Context, displayName string) (*User, error)
}

// SessionRevoker is the seam for a future networked backend: Logout invokes
// it best-effort and swallows whatever it returns. The default does nothing,
// there is no remote session to revoke in a purely client-side system.
type SessionRevoker interface {
	RevokeSession(ctx context.Context, session Session) error
}

type noopSessionRevoker struct{}

func (noopSessionRevoker) RevokeSession(context.Context, Session) error {
	return nil
}

// Auther orchestrates register/login/logout/refresh/profile-update against
// the repository, hasher, codec, and session store.
type Auther struct {
	users        Users
	codec        *TokenCodec
	session      *SessionStore
	hasher       PasswordAuthenticator
	revoker      SessionRevoker
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, codec *TokenCodec, session *SessionStore) *Auther {
	return &Auther{
		users:        users,
		codec:        codec,
		session:      session,
		hasher:       defaultHasher,
		revoker:      noopSessionRevoker{},
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithHasher(hasher PasswordAuthenticator) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithSessionRevoker configures the remote logout hook.
func (s *Auther) WithSessionRevoker(revoker SessionRevoker) *Auther {
	if revoker != nil {
		s.revoker = revoker
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock overrides the clock used to stamp activity events.
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Session returns a copy of the current session snapshot.
func (s *Auther) Session() Session {
	return s.session.Get()
}

// Register validates the input, enforces login-id uniqueness, creates the
// record, and binds a fresh token pair to it. Any failure leaves the session
// cleared.
func (s *Auther) Register(ctx context.Context, loginID, password, displayName string) (*AuthResult, error) {
	input := registerInput{LoginID: loginID, Password: password, DisplayName: displayName}
	if err := input.Validate(); err != nil {
		s.clearSession(ctx)
		return nil, newValidationError(err)
	}

	existing, err := s.users.FindByLoginID(ctx, loginID)
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	if existing != nil {
		s.clearSession(ctx)
		return nil, ErrUserAlreadyExists
	}

	record, err := s.users.Create(ctx, loginID, password, displayName)
	if err != nil {
		s.logger.Error("Register create user error", "error", err)
		s.clearSession(ctx)
		return nil, err
	}

	result, err := s.bindSession(ctx, record.Public())
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, record.ID.String(), map[string]any{
		"login_id": loginID,
	})

	return result, nil
}

// Login resolves the user by login id and verifies the password. An unknown
// login id and a wrong password are reported identically.
func (s *Auther) Login(ctx context.Context, loginID, password string) (*AuthResult, error) {
	user, err := s.users.FindByLoginID(ctx, loginID)
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	if user == nil || !s.verifyPassword(password, user) {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"login_id": loginID,
		})
		s.clearSession(ctx)
		return nil, ErrInvalidCredentials
	}

	result, err := s.bindSession(ctx, user.Public())
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{
		"login_id": loginID,
	})

	return result, nil
}

// Logout always succeeds from the caller's perspective: revoker errors are
// swallowed and logged, and the session is cleared regardless.
func (s *Auther) Logout(ctx context.Context) {
	session := s.session.Get()

	if err := s.revoker.RevokeSession(ctx, session); err != nil {
		s.logger.Warn("Logout revoker error, clearing session anyway", "error", err)
	}

	userID := ""
	if session.CurrentUser != nil {
		userID = session.CurrentUser.ID.String()
	}

	s.clearSession(ctx)

	s.emitAuthEvent(ctx, ActivityEventLogout, userID, nil)
}

// Refresh exchanges the stored refresh token for a fresh pair. A missing
// token clears the session without error; a malformed, expired, wrong-kind,
// or orphaned token fails with ErrInvalidRefreshToken. A dangling subject is
// indistinguishable from an invalid token on purpose.
func (s *Auther) Refresh(ctx context.Context) (*AuthResult, error) {
	session := s.session.Get()

	if session.RefreshToken == "" {
		s.clearSession(ctx)
		return nil, nil
	}

	payload := s.codec.Decode(session.RefreshToken)
	if payload == nil || payload.Kind != TokenKindRefresh {
		s.clearSession(ctx)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, payload.Subject)
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	if user == nil {
		s.clearSession(ctx)
		return nil, ErrInvalidRefreshToken
	}

	result, err := s.bindSession(ctx, user.Public())
	if err != nil {
		s.clearSession(ctx)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, user.ID.String(), nil)

	return result, nil
}

// UpdateProfile changes the display name of the session's current user. A
// failure here never logs the user out.
func (s *Auther) UpdateProfile(ctx context.Context, displayName string) (*User, error) {
	session := s.session.Get()
	if session.CurrentUser == nil {
		return nil, ErrUnauthorized
	}

	input := profileInput{DisplayName: displayName}
	if err := input.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	updated, err := s.users.Update(ctx, session.CurrentUser.ID, displayName)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		return nil, ErrUserNotFound
	}

	public := updated.Public()
	if err := s.session.SetCurrentUser(ctx, public); err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventProfileUpdated, public.ID.String(), map[string]any{
		"display_name": displayName,
	})

	return public, nil
}

// Initialize resolves "who is currently logged in" from persisted state. It
// never errors outward: corrupted or stale state is logged, cleared, and
// reported as "not authenticated".
func (s *Auther) Initialize(ctx context.Context) *User {
	if err := s.session.Restore(ctx); err != nil {
		s.logger.Error("Initialize failed to restore session", "error", err)
		s.clearSession(ctx)
		return nil
	}

	session := s.session.Get()

	if session.AccessToken != "" {
		if payload := s.codec.Decode(session.AccessToken); payload != nil && payload.Kind == TokenKindAccess {
			if user := s.resolveSubject(ctx, payload); user != nil {
				if err := s.session.SetCurrentUser(ctx, user); err != nil {
					s.logger.Error("Initialize failed to persist current user", "error", err)
				}
				return user
			}
			s.clearSession(ctx)
			return nil
		}
	}

	if session.RefreshToken != "" {
		result, err := s.Refresh(ctx)
		if err != nil {
			s.logger.Warn("Initialize refresh flow failed", "error", err)
			return nil
		}
		if result != nil {
			return result.User
		}
	}

	s.clearSession(ctx)
	return nil
}

func (s *Auther) resolveSubject(ctx context.Context, payload *TokenPayload) *User {
	user, err := s.users.FindByID(ctx, payload.Subject)
	if err != nil {
		s.logger.Error("Initialize subject lookup error", "error", err)
		if IsStorageCorrupted(err) {
			if err := s.users.Reset(ctx); err != nil {
				s.logger.Error("failed to remove corrupted user collection", "error", err)
			}
		}
		return nil
	}

	if user == nil {
		return nil
	}

	return user.Public()
}

func (s *Auther) bindSession(ctx context.Context, user *User) (*AuthResult, error) {
	access, err := s.codec.Issue(user.ID, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	refresh, err := s.codec.Issue(user.ID, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	if err := s.session.SetTokens(ctx, access, refresh); err != nil {
		return nil, err
	}

	if err := s.session.SetCurrentUser(ctx, user); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *Auther) clearSession(ctx context.Context) {
	if err := s.session.Clear(ctx); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
}

func (s *Auther) verifyPassword(password string, user *StoredUser) bool {
	err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash)
	if err == nil {
		return true
	}

	if !goerrors.Is(err, ErrInvalidCredentials) {
		s.logger.Warn("password verification failed for a reason other than mismatch", "error", err)
	}

	return false
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authenticator = (*Auther)(nil)
