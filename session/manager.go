package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keypilot/keypilot/api"
	"github.com/keypilot/keypilot/prefs"
)

// Client is the subset of the backend client the manager uses.
type Client interface {
	Login(ctx context.Context, userID, password string) (api.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	UserProfile(ctx context.Context, userID string) (json.RawMessage, error)
}

// Manager owns the Session. All mutation goes through it; everything
// else holds read-only snapshots.
type Manager struct {
	mu     sync.Mutex
	store  prefs.Store
	client Client
	logger *slog.Logger
	now    func() time.Time

	cur  Session
	subs []func(Event)

	// invalidated dedups server-triggered cleanup: a burst of 401s
	// from concurrent requests must purge and navigate exactly once.
	invalidated bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager. The session starts in
// StateUnknown; call Restore before anything branches on it.
func NewManager(store prefs.Store, client Client, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
		cur:    Session{State: StateUnknown},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// Token returns the current session token, or empty.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.Token
}

// Subscribe registers fn for session events. Delivery is synchronous
// under no lock; fn must not block.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Restore populates the session from the persisted token and user
// identity without contacting the network. A partial pair, corrupt
// user JSON, or an expired JWT token is treated as absence: both
// entries are purged and the session ends unauthenticated. Restore
// always leaves StateUnknown, so callers waiting on Loading are never
// blocked indefinitely.
func (m *Manager) Restore() {
	m.mu.Lock()

	token, tokenFound := m.get(prefs.KeySessionToken)
	userRaw, userFound := m.get(prefs.KeySessionUser)

	if !tokenFound && !userFound {
		m.setLocked(Session{State: StateUnauthenticated})
		return
	}

	userID, ok := decodeUser(userRaw)
	if !tokenFound || !userFound || token == "" || !ok {
		m.logger.Warn("Persisted session incomplete, clearing")
		m.purgeSessionKeys()
		m.setLocked(Session{State: StateUnauthenticated})
		return
	}

	if expired, when := tokenExpired(token, m.now()); expired {
		m.logger.Info("Persisted session token expired, clearing", "expired_at", when)
		m.purgeSessionKeys()
		m.setLocked(Session{State: StateUnauthenticated})
		return
	}

	m.invalidated = false
	m.setLocked(Session{UserID: userID, Token: token, State: StateAuthenticated})
}

// Login authenticates against the backend. It always reaches exactly
// one terminal state: authenticated on success, unauthenticated with a
// classified human-readable error otherwise. On success the token and
// user identity are persisted and a best-effort profile fetch is
// issued; its failure is logged, never surfaced.
func (m *Manager) Login(ctx context.Context, userID, password string) error {
	m.mu.Lock()
	m.setLocked(Session{UserID: userID, State: StateAuthenticating})

	result, err := m.client.Login(ctx, userID, password)
	if err != nil {
		msg := userMessage(err)
		m.mu.Lock()
		m.setLocked(Session{State: StateUnauthenticated, LastError: msg})
		return errors.New(msg)
	}

	m.mu.Lock()
	// Two independent writes; Restore treats a partial pair as
	// invalid if we crash between them.
	if err := m.store.Set(prefs.KeySessionToken, result.Token); err != nil {
		m.logger.Warn("Failed to persist session token", "error", err)
	}
	if data, err := json.Marshal(result.User); err == nil {
		if err := m.store.Set(prefs.KeySessionUser, string(data)); err != nil {
			m.logger.Warn("Failed to persist session user", "error", err)
		}
	}
	m.invalidated = false
	m.setLocked(Session{UserID: result.User.UserID, Token: result.Token, State: StateAuthenticated})

	if _, err := m.client.UserProfile(ctx, result.User.UserID); err != nil {
		m.logger.Debug("Profile fetch after login failed", "error", err)
	}

	return nil
}

// Logout notifies the backend (best effort), then unconditionally
// purges the persisted token, user identity, and any in-progress tour
// flags, and clears the session.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	userID := m.cur.UserID
	m.mu.Unlock()

	if userID != "" {
		if err := m.client.Logout(ctx, userID); err != nil {
			m.logger.Debug("Logout notification failed", "error", err)
		}
	}

	m.mu.Lock()
	m.purgeSessionKeys()
	m.del(prefs.KeyDashboardTourInProgress)
	m.del(prefs.KeyAddKeyTutorialInProgress)
	m.setLocked(Session{State: StateUnauthenticated})
}

// Invalidate handles a server-side session rejection (401 on any
// authenticated request): purge persisted state, clear the session,
// and emit a single navigate-to-login event. Repeat calls before the
// next successful login or restore are no-ops.
func (m *Manager) Invalidate() {
	m.mu.Lock()

	if m.invalidated {
		m.mu.Unlock()
		return
	}
	m.invalidated = true

	m.purgeSessionKeys()
	next := Session{State: StateUnauthenticated, LastError: (&api.Error{Kind: api.KindUnauthorized}).Message()}
	m.setLocked(next)
	m.emit(Event{Kind: EventNavigateLogin, Session: next})
}

// ClearError resets the attached error without changing the
// authentication state.
func (m *Manager) ClearError() {
	m.mu.Lock()
	if m.cur.LastError == "" {
		m.mu.Unlock()
		return
	}
	next := m.cur
	next.LastError = ""
	m.setLocked(next)
}

// setLocked stores the new session, releases the lock, and notifies
// subscribers. Caller must hold m.mu.
func (m *Manager) setLocked(next Session) {
	m.cur = next
	m.mu.Unlock()
	m.emit(Event{Kind: EventStateChanged, Session: next})
}

// emit delivers ev to subscribers. Must be called without holding m.mu.
func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// get reads a key, absorbing store errors as absence.
func (m *Manager) get(key string) (string, bool) {
	value, found, err := m.store.Get(key)
	if err != nil {
		m.logger.Warn("Preference read failed", "key", key, "error", err)
		return "", false
	}
	return value, found
}

// del deletes a key, absorbing store errors.
func (m *Manager) del(key string) {
	if err := m.store.Delete(key); err != nil {
		m.logger.Warn("Preference delete failed", "key", key, "error", err)
	}
}

// purgeSessionKeys removes the token and user identity entries.
func (m *Manager) purgeSessionKeys() {
	m.del(prefs.KeySessionToken)
	m.del(prefs.KeySessionUser)
}

// decodeUser extracts the user ID from the persisted identity JSON.
func decodeUser(raw string) (string, bool) {
	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", false
	}
	if user.UserID == "" {
		return "", false
	}
	return user.UserID, true
}

// tokenExpired reports whether token is a JWT whose exp claim has
// passed. Opaque tokens (anything that does not parse as a JWT) are
// never considered expired here; the backend is the authority and a
// stale one surfaces as a 401 on first use.
func tokenExpired(token string, now time.Time) (bool, time.Time) {
	if strings.Count(token, ".") != 2 {
		return false, time.Time{}
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, time.Time{}
	}

	if exp.Time.Before(now) {
		return true, exp.Time
	}
	return false, time.Time{}
}

// userMessage maps a classified API error to the text attached to the
// session.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return (&api.Error{Kind: api.KindGeneric}).Message()
}
