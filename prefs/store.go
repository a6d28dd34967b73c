// Package prefs provides the persisted preference store shared by the
// consent gate, session manager, and tour engines. It is a plain
// string-keyed capability with no transactions: each write is
// independent, and callers that persist related keys (for example the
// session token and user identity) must tolerate finding only one of
// them after a crash.
package prefs

// Preference keys. Each key is an independent entry; there are no
// composite writes.
const (
	// KeySessionToken holds the bearer credential for the current session.
	KeySessionToken = "session.token"

	// KeySessionUser holds the JSON-encoded user identity for the
	// current session.
	KeySessionUser = "session.user"

	// KeyConsentGranted marks that the visitor accepted the demo terms.
	KeyConsentGranted = "consent.granted"

	// KeyConsentExpiry is the RFC 3339 timestamp after which consent
	// must be treated as absent.
	KeyConsentExpiry = "consent.expires_at"

	// Dashboard tour flags.
	KeyDashboardTourCompleted  = "tour.dashboard.completed"
	KeyDashboardTourInProgress = "tour.dashboard.in_progress"

	// Add-key tutorial flags. The tutorial additionally tracks whether
	// this is the first visit to the add-key form.
	KeyAddKeyTutorialCompleted  = "tour.addkey.completed"
	KeyAddKeyTutorialInProgress = "tour.addkey.in_progress"
	KeyAddKeyTutorialFirstVisit = "tour.addkey.first_visit"
)

// Store is the persisted key/value capability. Implementations must
// treat a missing key as absence (found=false), never as an error.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}
