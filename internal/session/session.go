// ABOUTME: Session lifecycle state machine: resolving, anonymous, authenticated
// ABOUTME: Sole writer of the token store; tears the session down on auth failures

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"golang.org/x/sync/singleflight"
)

// State is the session lifecycle state
type State int

const (
	Anonymous State = iota
	Resolving
	Authenticated
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable view of the session. User is non-nil only when
// Token is set and was last validated.
type Snapshot struct {
	State     State
	User      *client.UserSummary
	Token     string
	IsLoading bool
}

// IsAdmin reports whether the signed-in user is an administrator
func (s Snapshot) IsAdmin() bool {
	return s.User.IsAdmin()
}

// API is the subset of the API client the session needs
type API interface {
	Login(ctx context.Context, creds client.Credentials) (string, error)
	Register(ctx context.Context, reg client.Registration) (string, error)
	Me(ctx context.Context) (*client.UserSummary, error)
}

// ErrNoToken is returned by LoginWithToken for an empty token
var ErrNoToken = errors.New("oauth_failed: no token in redirect")

// Manager owns the current identity. Safe for concurrent use; listeners are
// called outside the lock after every transition.
type Manager struct {
	api    API
	store  tokenstore.Store
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	user      *client.UserSummary
	busy      bool
	listeners []func(Snapshot)

	refetch singleflight.Group
}

// New creates a Manager. It starts in Resolving when the store holds a token,
// Anonymous otherwise; call Resolve to finish startup.
func New(api API, store tokenstore.Store) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		logger: slog.With("component", "session"),
		state:  Anonymous,
	}
	if _, ok := store.Get(); ok {
		m.state = Resolving
	}
	return m
}

// Snapshot returns the current session view
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	token, _ := m.store.Get()
	var user *client.UserSummary
	if m.user != nil {
		u := *m.user
		user = &u
	}
	if m.state != Authenticated {
		user = nil
	}
	return Snapshot{
		State:     m.state,
		User:      user,
		Token:     token,
		IsLoading: m.state == Resolving || m.busy,
	}
}

// Subscribe registers fn to receive a snapshot after every transition
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Resolve validates a persisted token at startup. Any failure clears the token
// and leaves the session Anonymous.
func (m *Manager) Resolve(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Resolving {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	user, err := m.api.Me(ctx)

	m.mu.Lock()
	if m.state != Resolving {
		// Logout or login won the race
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.store.Clear()
		m.state = Anonymous
		m.user = nil
		m.mu.Unlock()
		m.logger.Info("Persisted token rejected", "error", err)
		m.notify()
		return err
	}
	m.state = Authenticated
	m.user = user
	m.mu.Unlock()

	m.logger.Debug("Session resolved", "user", user.Username)
	m.notify()
	return nil
}

// Login exchanges credentials for a token and loads the profile. On any failure
// the session is left exactly as it was before the call.
func (m *Manager) Login(ctx context.Context, creds client.Credentials) (*client.UserSummary, error) {
	if err := forms.Validate(creds); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, "login", func(ctx context.Context) (string, error) {
		return m.api.Login(ctx, creds)
	})
}

// Register creates an account and signs into it, with the same atomicity as Login
func (m *Manager) Register(ctx context.Context, reg client.Registration) (*client.UserSummary, error) {
	if err := forms.Validate(reg); err != nil {
		return nil, err
	}
	return m.authenticate(ctx, "register", func(ctx context.Context) (string, error) {
		return m.api.Register(ctx, reg)
	})
}

// LoginWithToken completes an OAuth redirect: the token is persisted and the profile loaded
func (m *Manager) LoginWithToken(ctx context.Context, token string) (*client.UserSummary, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	return m.authenticate(ctx, "oauth", func(context.Context) (string, error) {
		return token, nil
	})
}

func (m *Manager) authenticate(ctx context.Context, method string, exchange func(context.Context) (string, error)) (*client.UserSummary, error) {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s: another sign-in is in progress", method)
	}
	m.busy = true
	prevState, prevUser := m.state, m.user
	prevToken, hadToken := m.store.Get()
	m.mu.Unlock()
	m.notify()

	finish := func() {
		m.mu.Lock()
		m.busy = false
		m.mu.Unlock()
		m.notify()
	}
	restore := func() {
		m.mu.Lock()
		if hadToken {
			m.store.Set(prevToken)
		} else {
			m.store.Clear()
		}
		m.state, m.user = prevState, prevUser
		m.mu.Unlock()
	}

	token, err := exchange(ctx)
	if err != nil {
		m.logger.Info("Credential exchange failed", "method", method, "error", err)
		finish()
		return nil, err
	}

	m.mu.Lock()
	m.store.Set(token)
	m.mu.Unlock()

	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Warn("Profile fetch after sign-in failed, rolling back", "method", method, "error", err)
		restore()
		finish()
		return nil, fmt.Errorf("%s: loading profile: %w", method, err)
	}

	m.mu.Lock()
	m.state = Authenticated
	m.user = user
	m.mu.Unlock()

	m.logger.Info("Signed in", "method", method, "user", user.Username)
	finish()
	u := *user
	return &u, nil
}

// Logout clears the token and user. No network call is made.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.store.Clear()
	m.state = Anonymous
	m.user = nil
	m.mu.Unlock()

	m.logger.Info("Signed out")
	m.notify()
}

// RefetchUser reloads the profile of the signed-in user. Concurrent callers share
// one request. Auth failures tear the session down; other failures keep it.
func (m *Manager) RefetchUser(ctx context.Context) (*client.UserSummary, error) {
	if m.Snapshot().State != Authenticated {
		return nil, &client.APIError{Kind: client.KindAuth, Message: "not signed in"}
	}

	// the shared request outlives any one caller; each caller waits on its own ctx
	shared := context.WithoutCancel(ctx)
	ch := m.refetch.DoChan("me", func() (any, error) {
		return m.api.Me(shared)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, &client.APIError{Kind: client.KindCanceled, Message: "request canceled", Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, m.Observe(res.Err)
	}
	user := res.Val.(*client.UserSummary)

	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return nil, &client.APIError{Kind: client.KindAuth, Message: "signed out during refresh"}
	}
	m.user = user
	m.mu.Unlock()

	m.notify()
	u := *user
	return &u, nil
}

// UpdateToken stores a reissued token without changing the signed-in identity
func (m *Manager) UpdateToken(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	m.store.Set(token)
	m.mu.Unlock()

	m.logger.Debug("Token replaced")
	m.notify()
}

// Observe inspects the result of an authenticated request. An auth failure on an
// authenticated session clears it. err is returned unchanged.
func (m *Manager) Observe(err error) error {
	if !client.IsAuth(err) {
		return err
	}

	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return err
	}
	m.store.Clear()
	m.state = Anonymous
	m.user = nil
	m.mu.Unlock()

	m.logger.Warn("Session invalidated by server", "error", err)
	m.notify()
	return err
}
