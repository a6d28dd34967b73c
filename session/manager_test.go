package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keypilot/keypilot/api"
	"github.com/keypilot/keypilot/prefs"
)

// fakeClient counts calls and returns scripted results.
type fakeClient struct {
	loginResult api.LoginResult
	loginErr    error
	profileErr  error
	logoutErr   error

	loginCalls   int
	logoutCalls  int
	profileCalls int
}

func (f *fakeClient) Login(_ context.Context, userID, _ string) (api.LoginResult, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return api.LoginResult{}, f.loginErr
	}
	if f.loginResult.Token != "" {
		return f.loginResult, nil
	}
	return api.LoginResult{Token: "tok-" + userID, User: api.User{UserID: userID}}, nil
}

func (f *fakeClient) Logout(context.Context, string) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeClient) UserProfile(context.Context, string) (json.RawMessage, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return json.RawMessage(`{"plan":"demo"}`), nil
}

func (f *fakeClient) networkCalls() int {
	return f.loginCalls + f.logoutCalls + f.profileCalls
}

func persistSession(t *testing.T, store prefs.Store, token, userID string) {
	t.Helper()
	require.NoError(t, store.Set(prefs.KeySessionToken, token))
	user, err := json.Marshal(api.User{UserID: userID})
	require.NoError(t, err)
	require.NoError(t, store.Set(prefs.KeySessionUser, string(user)))
}

func TestManager_StartsUnknown(t *testing.T) {
	m := NewManager(prefs.NewMemory(), &fakeClient{})

	cur := m.Current()
	assert.Equal(t, StateUnknown, cur.State)
	assert.True(t, cur.Loading())
	assert.False(t, cur.Authenticated())
}

func TestManager_Restore_EmptyStore(t *testing.T) {
	m := NewManager(prefs.NewMemory(), &fakeClient{})

	m.Restore()

	cur := m.Current()
	assert.Equal(t, StateUnauthenticated, cur.State)
	assert.False(t, cur.Loading(), "restore must terminate the loading state")
}

func TestManager_Restore_Idempotent_NoNetwork(t *testing.T) {
	store := prefs.NewMemory()
	persistSession(t, store, "tok-abc", "demo")
	client := &fakeClient{}
	m := NewManager(store, client)

	for i := 0; i < 3; i++ {
		m.Restore()
		cur := m.Current()
		assert.True(t, cur.Authenticated())
		assert.Equal(t, "demo", cur.UserID)
		assert.Equal(t, "tok-abc", cur.Token)
	}

	assert.Zero(t, client.networkCalls(), "restore must not touch the network")
}

func TestManager_Restore_PartialPairPurged(t *testing.T) {
	store := prefs.NewMemory()
	require.NoError(t, store.Set(prefs.KeySessionToken, "tok-abc"))
	m := NewManager(store, &fakeClient{})

	m.Restore()

	assert.Equal(t, StateUnauthenticated, m.Current().State)
	_, found, err := store.Get(prefs.KeySessionToken)
	require.NoError(t, err)
	assert.False(t, found, "orphan token must be purged")
}

func TestManager_Restore_CorruptUserPurged(t *testing.T) {
	store := prefs.NewMemory()
	require.NoError(t, store.Set(prefs.KeySessionToken, "tok-abc"))
	require.NoError(t, store.Set(prefs.KeySessionUser, "{corrupt"))
	m := NewManager(store, &fakeClient{})

	m.Restore()

	assert.Equal(t, StateUnauthenticated, m.Current().State)
	for _, key := range []string{prefs.KeySessionToken, prefs.KeySessionUser} {
		_, found, err := store.Get(key)
		require.NoError(t, err)
		assert.False(t, found, "%s must be purged", key)
	}
}

func TestManager_Restore_ExpiredJWTRejected(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "demo",
		"exp": now.Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := prefs.NewMemory()
	persistSession(t, store, token, "demo")
	m := NewManager(store, &fakeClient{}, WithClock(func() time.Time { return now }))

	m.Restore()

	assert.Equal(t, StateUnauthenticated, m.Current().State)
	_, found, err := store.Get(prefs.KeySessionToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestManager_Restore_OpaqueTokenAccepted(t *testing.T) {
	store := prefs.NewMemory()
	persistSession(t, store, "opaque-token-no-dots", "demo")
	m := NewManager(store, &fakeClient{})

	m.Restore()
	assert.True(t, m.Current().Authenticated())
}

func TestManager_Login_Success(t *testing.T) {
	store := prefs.NewMemory()
	client := &fakeClient{}
	m := NewManager(store, client)
	m.Restore()

	require.NoError(t, m.Login(context.Background(), "demo", "demo123"))

	cur := m.Current()
	assert.True(t, cur.Authenticated())
	assert.Equal(t, "demo", cur.UserID)
	assert.Empty(t, cur.LastError)

	token, found, err := store.Get(prefs.KeySessionToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok-demo", token)

	assert.Equal(t, 1, client.profileCalls, "login issues a profile fetch")
}

func TestManager_Login_ProfileFailureIsNonFatal(t *testing.T) {
	client := &fakeClient{profileErr: errors.New("profile down")}
	m := NewManager(prefs.NewMemory(), client)
	m.Restore()

	require.NoError(t, m.Login(context.Background(), "demo", "demo123"))
	assert.True(t, m.Current().Authenticated())
}

func TestManager_Login_FailureLeavesNoPartialAuth(t *testing.T) {
	tests := []struct {
		name string
		kind api.Kind
	}{
		{name: "invalid credentials", kind: api.KindInvalidCredentials},
		{name: "unavailable", kind: api.KindUnavailable},
		{name: "conflict", kind: api.KindConflict},
		{name: "not found", kind: api.KindNotFound},
		{name: "server", kind: api.KindServer},
		{name: "generic", kind: api.KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := prefs.NewMemory()
			client := &fakeClient{loginErr: &api.Error{Kind: tt.kind}}
			m := NewManager(store, client)
			m.Restore()

			err := m.Login(context.Background(), "demo", "wrong")
			require.Error(t, err)

			cur := m.Current()
			assert.False(t, cur.Authenticated())
			assert.Equal(t, StateUnauthenticated, cur.State)
			assert.Equal(t, (&api.Error{Kind: tt.kind}).Message(), cur.LastError)

			_, found, err := store.Get(prefs.KeySessionToken)
			require.NoError(t, err)
			assert.False(t, found, "no token may be persisted on failure")
		})
	}
}

func TestManager_Login_TransitionsThroughAuthenticating(t *testing.T) {
	m := NewManager(prefs.NewMemory(), &fakeClient{})
	m.Restore()

	var states []State
	m.Subscribe(func(ev Event) {
		if ev.Kind == EventStateChanged {
			states = append(states, ev.Session.State)
		}
	})

	require.NoError(t, m.Login(context.Background(), "demo", "demo123"))
	require.Len(t, states, 2)
	assert.Equal(t, StateAuthenticating, states[0])
	assert.Equal(t, StateAuthenticated, states[1])
}

func TestManager_Logout_PurgesEverything(t *testing.T) {
	store := prefs.NewMemory()
	require.NoError(t, store.Set(prefs.KeyDashboardTourInProgress, "true"))
	require.NoError(t, store.Set(prefs.KeyAddKeyTutorialInProgress, "true"))
	require.NoError(t, store.Set(prefs.KeyDashboardTourCompleted, "true"))
	persistSession(t, store, "tok-abc", "demo")

	client := &fakeClient{}
	m := NewManager(store, client)
	m.Restore()
	require.True(t, m.Current().Authenticated())

	m.Logout(context.Background())

	assert.Equal(t, StateUnauthenticated, m.Current().State)
	assert.Equal(t, 1, client.logoutCalls)

	for _, key := range []string{
		prefs.KeySessionToken,
		prefs.KeySessionUser,
		prefs.KeyDashboardTourInProgress,
		prefs.KeyAddKeyTutorialInProgress,
	} {
		_, found, err := store.Get(key)
		require.NoError(t, err)
		assert.False(t, found, "%s must be purged on logout", key)
	}

	// Completed flags survive logout: finished tours stay finished.
	value, found, err := store.Get(prefs.KeyDashboardTourCompleted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", value)
}

func TestManager_Logout_RemoteFailureIgnored(t *testing.T) {
	store := prefs.NewMemory()
	persistSession(t, store, "tok-abc", "demo")
	m := NewManager(store, &fakeClient{logoutErr: errors.New("backend down")})
	m.Restore()

	m.Logout(context.Background())
	assert.Equal(t, StateUnauthenticated, m.Current().State)
}

func TestManager_Invalidate_ExactlyOnce(t *testing.T) {
	store := prefs.NewMemory()
	persistSession(t, store, "tok-abc", "demo")
	m := NewManager(store, &fakeClient{})
	m.Restore()

	var navigations int
	m.Subscribe(func(ev Event) {
		if ev.Kind == EventNavigateLogin {
			navigations++
		}
	})

	// A burst of 401s from concurrent requests.
	m.Invalidate()
	m.Invalidate()
	m.Invalidate()

	assert.Equal(t, 1, navigations, "navigate-to-login must fire exactly once")
	assert.Equal(t, StateUnauthenticated, m.Current().State)
	assert.NotEmpty(t, m.Current().LastError)

	for _, key := range []string{prefs.KeySessionToken, prefs.KeySessionUser} {
		_, found, err := store.Get(key)
		require.NoError(t, err)
		assert.False(t, found, "%s must be purged on invalidation", key)
	}
}

func TestManager_Invalidate_RearmsAfterLogin(t *testing.T) {
	m := NewManager(prefs.NewMemory(), &fakeClient{})
	m.Restore()

	var navigations int
	m.Subscribe(func(ev Event) {
		if ev.Kind == EventNavigateLogin {
			navigations++
		}
	})

	m.Invalidate()
	require.NoError(t, m.Login(context.Background(), "demo", "demo123"))
	m.Invalidate()

	assert.Equal(t, 2, navigations, "a fresh login re-arms invalidation")
}

func TestManager_ClearError(t *testing.T) {
	client := &fakeClient{loginErr: &api.Error{Kind: api.KindInvalidCredentials}}
	m := NewManager(prefs.NewMemory(), client)
	m.Restore()

	_ = m.Login(context.Background(), "demo", "wrong")
	require.NotEmpty(t, m.Current().LastError)

	m.ClearError()
	cur := m.Current()
	assert.Empty(t, cur.LastError)
	assert.Equal(t, StateUnauthenticated, cur.State, "clearing the error keeps the auth state")
}

func ExampleManager_Login() {
	m := NewManager(prefs.NewMemory(), &fakeClient{})
	m.Restore()

	if err := m.Login(context.Background(), "demo", "demo123"); err == nil {
		fmt.Println(m.Current().UserID)
	}
	// Output: demo
}
