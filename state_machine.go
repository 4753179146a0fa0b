package localauth

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Status is the consumer-visible auth state. Idle exists only before
// Initialize runs; every later attempt swings between loading and one of the
// two settled states.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Snapshot is the consistent triple handed to listeners after every
// operation settles.
type Snapshot struct {
	Status      Status
	CurrentUser *User
	LastError   string
}

// AuthStateMachine drives an Authenticator and keeps status, current user,
// and last error consistent for presentation-layer collaborators. It does not
// dictate how consumers re-render, only that the three accessors agree once
// an operation has settled.
type AuthStateMachine struct {
	auth   Authenticator
	logger Logger

	mu          sync.RWMutex
	status      Status
	currentUser *User
	lastError   string

	listenerSeq int
	listeners   map[int]func(Snapshot)
}

// AuthStateMachineOption customizes state machine construction.
type AuthStateMachineOption func(*AuthStateMachine)

// WithStateMachineLogger overrides the logger used for listener dispatch.
func WithStateMachineLogger(logger Logger) AuthStateMachineOption {
	return func(sm *AuthStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

func NewAuthStateMachine(auth Authenticator, opts ...AuthStateMachineOption) *AuthStateMachine {
	sm := &AuthStateMachine{
		auth:      auth,
		logger:    defLogger{},
		status:    StatusIdle,
		listeners: map[int]func(Snapshot){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// Status returns the current consumer-visible state.
func (sm *AuthStateMachine) Status() Status {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.status
}

// CurrentUser returns the current public user, nil when unauthenticated.
func (sm *AuthStateMachine) CurrentUser() *User {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.currentUser == nil {
		return nil
	}
	user := *sm.currentUser
	return &user
}

// LastError returns the human-readable message of the last failed operation,
// empty after a success.
func (sm *AuthStateMachine) LastError() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastError
}

// OnChange registers a listener invoked with a snapshot after every settle.
// The returned function unsubscribes it.
func (sm *AuthStateMachine) OnChange(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	sm.mu.Lock()
	sm.listenerSeq++
	id := sm.listenerSeq
	sm.listeners[id] = fn
	sm.mu.Unlock()

	return func() {
		sm.mu.Lock()
		delete(sm.listeners, id)
		sm.mu.Unlock()
	}
}

// Initialize is the only transition out of idle. It resolves persisted
// session state and settles to authenticated or unauthenticated, never
// reporting an error.
func (sm *AuthStateMachine) Initialize(ctx context.Context) *User {
	sm.transition(StatusLoading, sm.CurrentUser(), "")

	user := sm.auth.Initialize(ctx)
	if user != nil {
		sm.transition(StatusAuthenticated, user, "")
		return user
	}

	sm.transition(StatusUnauthenticated, nil, "")
	return nil
}

func (sm *AuthStateMachine) Register(ctx context.Context, loginID, password, displayName string) (*AuthResult, error) {
	sm.transition(StatusLoading, nil, "")

	result, err := sm.auth.Register(ctx, loginID, password, displayName)
	if err != nil {
		sm.transition(StatusUnauthenticated, nil, errorMessage(err))
		return nil, err
	}

	sm.transition(StatusAuthenticated, result.User, "")
	return result, nil
}

func (sm *AuthStateMachine) Login(ctx context.Context, loginID, password string) (*AuthResult, error) {
	sm.transition(StatusLoading, nil, "")

	result, err := sm.auth.Login(ctx, loginID, password)
	if err != nil {
		sm.transition(StatusUnauthenticated, nil, errorMessage(err))
		return nil, err
	}

	sm.transition(StatusAuthenticated, result.User, "")
	return result, nil
}

// Logout is idempotent: it always settles unauthenticated with the user and
// error cleared, no matter how often it runs.
func (sm *AuthStateMachine) Logout(ctx context.Context) {
	sm.transition(StatusLoading, sm.CurrentUser(), "")
	sm.auth.Logout(ctx)
	sm.transition(StatusUnauthenticated, nil, "")
}

// Refresh exchanges the stored refresh token for a fresh pair. A missing
// token settles unauthenticated without an error.
func (sm *AuthStateMachine) Refresh(ctx context.Context) (*AuthResult, error) {
	sm.transition(StatusLoading, sm.CurrentUser(), "")

	result, err := sm.auth.Refresh(ctx)
	if err != nil {
		sm.transition(StatusUnauthenticated, nil, errorMessage(err))
		return nil, err
	}

	if result == nil {
		sm.transition(StatusUnauthenticated, nil, "")
		return nil, nil
	}

	sm.transition(StatusAuthenticated, result.User, "")
	return result, nil
}

// UpdateProfile never changes auth status: a profile error doesn't log the
// user out, it only surfaces through LastError.
func (sm *AuthStateMachine) UpdateProfile(ctx context.Context, displayName string) (*User, error) {
	user, err := sm.auth.UpdateProfile(ctx, displayName)
	if err != nil {
		sm.mu.Lock()
		sm.lastError = errorMessage(err)
		snapshot := sm.snapshotLocked()
		listeners := sm.listenersLocked()
		sm.mu.Unlock()

		sm.notify(listeners, snapshot)
		return nil, err
	}

	sm.mu.Lock()
	sm.currentUser = user
	sm.lastError = ""
	snapshot := sm.snapshotLocked()
	listeners := sm.listenersLocked()
	sm.mu.Unlock()

	sm.notify(listeners, snapshot)
	return user, nil
}

func (sm *AuthStateMachine) transition(status Status, user *User, lastError string) {
	sm.mu.Lock()
	sm.status = status
	sm.currentUser = user
	sm.lastError = lastError
	snapshot := sm.snapshotLocked()
	listeners := sm.listenersLocked()
	sm.mu.Unlock()

	sm.notify(listeners, snapshot)
}

func (sm *AuthStateMachine) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Status:    sm.status,
		LastError: sm.lastError,
	}
	if sm.currentUser != nil {
		user := *sm.currentUser
		snapshot.CurrentUser = &user
	}
	return snapshot
}

func (sm *AuthStateMachine) listenersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(sm.listeners))
	for _, fn := range sm.listeners {
		out = append(out, fn)
	}
	return out
}

// notify runs outside the lock so listeners may call the accessors.
func (sm *AuthStateMachine) notify(listeners []func(Snapshot), snapshot Snapshot) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}

	return err.Error()
}
