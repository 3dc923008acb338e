// ABOUTME: Tests for the session state machine
// ABOUTME: Runs login/register/resolve/teardown flows against the fake backend and a stub API

package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aliceCreds = client.Credentials{Email: "alice@example.com", Password: apitest.AlicePassword}

func newManager(t *testing.T, srv *apitest.Server, token string) (*Manager, *tokenstore.MemoryStore) {
	t.Helper()
	store := tokenstore.NewMemory(token)
	api := client.New(srv.URL, client.WithTokenSource(store))
	return New(api, store), store
}

func TestNew_InitialState(t *testing.T) {
	srv := apitest.NewServer(t)

	m, _ := newManager(t, srv, "")
	assert.Equal(t, Anonymous, m.Snapshot().State)
	assert.False(t, m.Snapshot().IsLoading)

	m, _ = newManager(t, srv, "persisted")
	snap := m.Snapshot()
	assert.Equal(t, Resolving, snap.State)
	assert.True(t, snap.IsLoading)
	assert.Nil(t, snap.User)
}

func TestResolve_ValidToken(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, srv.TokenFor(apitest.AliceID))

	require.NoError(t, m.Resolve(context.Background()))
	snap := m.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, apitest.AliceID, snap.User.ID)
	assert.False(t, snap.IsLoading)
}

func TestResolve_InvalidTokenClears(t *testing.T) {
	srv := apitest.NewServer(t)
	m, store := newManager(t, srv, "stale-token")

	err := m.Resolve(context.Background())
	assert.True(t, client.IsAuth(err))

	snap := m.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.Empty(t, snap.Token)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestResolve_NoopWhenAnonymous(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	require.NoError(t, m.Resolve(context.Background()))
	assert.Empty(t, srv.Calls(apitest.RouteMe))
}

func TestLogin_Success(t *testing.T) {
	srv := apitest.NewServer(t)
	m, store := newManager(t, srv, "")

	user, err := m.Login(context.Background(), aliceCreds)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	snap := m.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, apitest.AliceID, snap.User.ID)
	token, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, token, snap.Token)
}

func TestLogin_FailureKeepsPriorState(t *testing.T) {
	srv := apitest.NewServer(t)
	m, store := newManager(t, srv, "")

	_, err := m.Login(context.Background(), client.Credentials{Email: "alice@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, client.IsAuth(err))

	snap := m.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Token)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLogin_InvalidInputSkipsNetwork(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	_, err := m.Login(context.Background(), client.Credentials{Email: "not-an-email"})
	assert.True(t, client.IsValidation(err))
	assert.Empty(t, srv.Calls(apitest.RouteLogin))
}

func TestLogin_ProfileFailureRollsBack(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Fail(apitest.RouteMe, http.StatusInternalServerError, 1)
	m, store := newManager(t, srv, "")

	_, err := m.Login(context.Background(), aliceCreds)
	require.Error(t, err)
	assert.True(t, client.IsTransient(err))

	assert.Equal(t, Anonymous, m.Snapshot().State)
	_, ok := store.Get()
	assert.False(t, ok, "token from the exchange must not survive")
	assert.False(t, m.Snapshot().IsLoading)
}

func TestLogin_ProfileFailureRestoresPreviousAccount(t *testing.T) {
	srv := apitest.NewServer(t)
	adminToken := srv.TokenFor(apitest.AdminID)
	m, store := newManager(t, srv, adminToken)
	require.NoError(t, m.Resolve(context.Background()))

	srv.Fail(apitest.RouteMe, http.StatusBadGateway, 1)
	_, err := m.Login(context.Background(), aliceCreds)
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Equal(t, apitest.AdminID, snap.User.ID)
	token, _ := store.Get()
	assert.Equal(t, adminToken, token)
}

func TestLoginLogoutLogin_LastIdentityWins(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")
	ctx := context.Background()

	_, err := m.Login(ctx, aliceCreds)
	require.NoError(t, err)
	m.Logout()
	assert.Equal(t, Anonymous, m.Snapshot().State)

	_, err = m.Login(ctx, client.Credentials{Email: "admin@example.com", Password: apitest.AdminPassword})
	require.NoError(t, err)
	m.Logout()

	_, err = m.Login(ctx, aliceCreds)
	require.NoError(t, err)
	assert.Equal(t, apitest.AliceID, m.Snapshot().User.ID)
	assert.False(t, m.Snapshot().IsAdmin())
}

func TestRegister_Success(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	user, err := m.Register(context.Background(), client.Registration{
		Username: "carol", FullName: "Carol", Email: "carol@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, Authenticated, m.Snapshot().State)
}

func TestRegister_ServerValidation(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	_, err := m.Register(context.Background(), client.Registration{
		Username: "alice", FullName: "Dup", Email: "dup@example.com", Password: "secret1",
	})
	assert.True(t, client.IsValidation(err))
	assert.Equal(t, Anonymous, m.Snapshot().State)
}

func TestLoginWithToken(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	_, err := m.LoginWithToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)

	user, err := m.LoginWithToken(context.Background(), srv.TokenFor(apitest.AdminID))
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.True(t, m.Snapshot().IsAdmin())
}

func TestLoginWithToken_BadTokenRollsBack(t *testing.T) {
	srv := apitest.NewServer(t)
	m, store := newManager(t, srv, "")

	_, err := m.LoginWithToken(context.Background(), "forged")
	assert.True(t, client.IsAuth(err))
	assert.Equal(t, Anonymous, m.Snapshot().State)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestObserve_AuthErrorTearsDown(t *testing.T) {
	srv := apitest.NewServer(t)
	token := srv.TokenFor(apitest.AliceID)
	m, store := newManager(t, srv, token)
	require.NoError(t, m.Resolve(context.Background()))

	srv.Revoke(token)
	api := client.New(srv.URL, client.WithTokenSource(store))
	_, err := api.Feed(context.Background())

	returned := m.Observe(err)
	assert.Same(t, err, returned)
	assert.Equal(t, Anonymous, m.Snapshot().State)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestObserve_OtherErrorsKeepSession(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, srv.TokenFor(apitest.AliceID))
	require.NoError(t, m.Resolve(context.Background()))

	for _, err := range []error{
		nil,
		errors.New("plain"),
		&client.APIError{Kind: client.KindForbidden},
		&client.APIError{Kind: client.KindTransient},
		&client.APIError{Kind: client.KindNotFound},
	} {
		m.Observe(err)
		assert.Equal(t, Authenticated, m.Snapshot().State, "error %v", err)
	}
}

func TestRefetchUser_PicksUpProfileEdit(t *testing.T) {
	srv := apitest.NewServer(t)
	m, store := newManager(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()
	require.NoError(t, m.Resolve(ctx))

	api := client.New(srv.URL, client.WithTokenSource(store))
	resp, err := api.UpdateProfile(ctx, client.ProfileUpdate{Username: "alice_renamed", FullName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	m.UpdateToken(resp.Token)
	token, _ := store.Get()
	assert.Equal(t, resp.Token, token)
	assert.Equal(t, "alice", m.Snapshot().User.Username, "UpdateToken keeps identity")

	user, err := m.RefetchUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", user.Username)
	assert.Equal(t, apitest.AliceID, m.Snapshot().User.ID)
}

func TestRefetchUser_TransientFailureKeepsSession(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, srv.TokenFor(apitest.AliceID))
	require.NoError(t, m.Resolve(context.Background()))

	srv.Fail(apitest.RouteMe, http.StatusServiceUnavailable, 1)
	_, err := m.RefetchUser(context.Background())
	assert.True(t, client.IsTransient(err))
	assert.Equal(t, Authenticated, m.Snapshot().State)
}

func TestRefetchUser_Anonymous(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	_, err := m.RefetchUser(context.Background())
	assert.True(t, client.IsAuth(err))
}

// stubAPI counts Me calls and blocks them until released
type stubAPI struct {
	meCalls atomic.Int32
	release chan struct{}
	user    *client.UserSummary
}

func (s *stubAPI) Login(context.Context, client.Credentials) (string, error) { return "t", nil }

func (s *stubAPI) Register(context.Context, client.Registration) (string, error) { return "t", nil }

func (s *stubAPI) Me(ctx context.Context) (*client.UserSummary, error) {
	s.meCalls.Add(1)
	select {
	case <-s.release:
		return s.user, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefetchUser_SharesInFlightRequest(t *testing.T) {
	api := &stubAPI{release: make(chan struct{}), user: &client.UserSummary{ID: 7, Username: "x"}}
	m := New(api, tokenstore.NewMemory("t"))
	close(api.release)
	require.NoError(t, m.Resolve(context.Background()))
	api.meCalls.Store(0)
	api.release = make(chan struct{})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.RefetchUser(context.Background())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return api.meCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.release)
	wg.Wait()

	assert.Equal(t, int32(1), api.meCalls.Load())
}

func TestRefetchUser_CancelledCallerDoesNotFailOthers(t *testing.T) {
	api := &stubAPI{release: make(chan struct{}), user: &client.UserSummary{ID: 7, Username: "x"}}
	m := New(api, tokenstore.NewMemory("t"))
	close(api.release)
	require.NoError(t, m.Resolve(context.Background()))
	api.meCalls.Store(0)
	api.release = make(chan struct{})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.RefetchUser(first)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return api.meCalls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		user *client.UserSummary
		err  error
	}
	second := make(chan result, 1)
	go func() {
		u, err := m.RefetchUser(context.Background())
		second <- result{u, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	err := <-firstErr
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, client.KindCanceled, apiErr.Kind)

	close(api.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, int64(7), got.user.ID)
	assert.Equal(t, int32(1), api.meCalls.Load())
	assert.Equal(t, Authenticated, m.Snapshot().State)
}

func TestIsLoading_DuringLogin(t *testing.T) {
	api := &stubAPI{release: make(chan struct{}), user: &client.UserSummary{ID: 1}}
	m := New(api, tokenstore.NewMemory(""))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Login(context.Background(), aliceCreds)
	}()

	require.Eventually(t, func() bool { return m.Snapshot().IsLoading }, time.Second, time.Millisecond)
	close(api.release)
	<-done
	assert.False(t, m.Snapshot().IsLoading)
	assert.Equal(t, Authenticated, m.Snapshot().State)
}

func TestSubscribe_NotifiedOnTransitions(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	var mu sync.Mutex
	var states []State
	m.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s.State)
	})

	_, err := m.Login(context.Background(), aliceCreds)
	require.NoError(t, err)
	m.Logout()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.Equal(t, Anonymous, states[len(states)-1])
	assert.Contains(t, states, Authenticated)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "resolving", Resolving.String())
	assert.Equal(t, "authenticated", Authenticated.String())
}

func TestSubscribe_ListenerMaySubscribeDuringNotify(t *testing.T) {
	srv := apitest.NewServer(t)
	m, _ := newManager(t, srv, "")

	var first, late atomic.Int32
	m.Subscribe(func(Snapshot) {
		if first.Add(1) == 1 {
			m.Subscribe(func(Snapshot) { late.Add(1) })
		}
	})

	m.Logout()
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(0), late.Load(), "a listener added mid-notify waits for the next transition")

	m.Logout()
	assert.Equal(t, int32(2), first.Load())
	assert.Equal(t, int32(1), late.Load())
}
