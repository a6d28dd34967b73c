// Package session manages the authenticated session: login and logout
// against the remote auth API, restoration across restarts, and
// server-triggered invalidation. Session state is an explicit finite
// state machine rather than ad-hoc flags; consumers read snapshots and
// subscribe to change events, never mutating state directly.
package session

// State is the authentication lifecycle state.
type State string

const (
	// StateUnknown is the initial state, before Restore has run.
	// Consumers must not make navigation decisions while in it.
	StateUnknown State = "unknown"

	// StateAuthenticating is the transient state during a login call.
	StateAuthenticating State = "authenticating"

	// StateAuthenticated means a token and user identity are held and
	// were accepted by the backend or restored from the store.
	StateAuthenticated State = "authenticated"

	// StateUnauthenticated is the terminal signed-out state.
	StateUnauthenticated State = "unauthenticated"
)

// Session is an immutable snapshot of the current session.
type Session struct {
	UserID    string
	Token     string
	State     State
	LastError string
}

// Authenticated reports whether the session holds an accepted
// token/user pair.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.UserID != "" && s.Token != ""
}

// Loading reports whether the session outcome is still being
// determined. Views must wait for this to clear before branching on
// Authenticated, or an already-signed-in user flashes through a
// redirect to login.
func (s Session) Loading() bool {
	return s.State == StateUnknown || s.State == StateAuthenticating
}

// EventKind identifies a session event.
type EventKind string

const (
	// EventStateChanged fires on every state transition.
	EventStateChanged EventKind = "state_changed"

	// EventNavigateLogin fires exactly once per server-triggered
	// invalidation: the host should route the user to the login view.
	EventNavigateLogin EventKind = "navigate_login"
)

// Event is delivered synchronously to subscribers; handlers must not
// block.
type Event struct {
	Kind    EventKind
	Session Session
}
