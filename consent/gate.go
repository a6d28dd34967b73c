// Package consent implements the demo terms-of-use gate. Consent is
// granted for a fixed window and checked every time the login flow is
// entered via the demo path; non-demo logins are never gated.
package consent

import (
	"log/slog"
	"time"

	"github.com/keypilot/keypilot/prefs"
)

// TTL is how long granted consent remains valid.
const TTL = 24 * time.Hour

// Gate decides whether a demo entry may proceed to login, and owns the
// persisted consent record. Store failures degrade to "no consent":
// the gate fails closed rather than surfacing an error.
type Gate struct {
	store  prefs.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a consent gate backed by the given store.
func NewGate(store prefs.Store, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasValidConsent reports whether consent was granted and has not
// expired. An expired or unreadable record is purged before returning
// false.
func (g *Gate) HasValidConsent() bool {
	granted, found, err := g.store.Get(prefs.KeyConsentGranted)
	if err != nil {
		g.logger.Warn("Consent check failed, treating as absent", "error", err)
		return false
	}
	if !found || granted != "true" {
		return false
	}

	expiry, found, err := g.store.Get(prefs.KeyConsentExpiry)
	if err != nil {
		g.logger.Warn("Consent expiry check failed, treating as absent", "error", err)
		return false
	}
	if !found {
		// Granted flag without an expiry is a partial write; purge it.
		g.purge()
		return false
	}

	expiresAt, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		g.logger.Warn("Consent expiry corrupt, purging", "value", expiry)
		g.purge()
		return false
	}

	if !g.now().Before(expiresAt) {
		g.purge()
		return false
	}

	return true
}

// Grant records consent valid for the next TTL window. Granting again
// simply resets the window.
func (g *Gate) Grant() error {
	if err := g.store.Set(prefs.KeyConsentGranted, "true"); err != nil {
		return err
	}
	expiresAt := g.now().Add(TTL)
	return g.store.Set(prefs.KeyConsentExpiry, expiresAt.Format(time.RFC3339))
}

// Revoke purges the consent record unconditionally.
func (g *Gate) Revoke() error {
	if err := g.store.Delete(prefs.KeyConsentGranted); err != nil {
		return err
	}
	return g.store.Delete(prefs.KeyConsentExpiry)
}

// CanEnterLogin reports whether the login flow may be entered. Only the
// demo entry path is gated on consent.
func (g *Gate) CanEnterLogin(isDemoEntry bool) bool {
	if !isDemoEntry {
		return true
	}
	return g.HasValidConsent()
}

// purge removes the consent record, logging rather than propagating
// store errors.
func (g *Gate) purge() {
	if err := g.store.Delete(prefs.KeyConsentGranted); err != nil {
		g.logger.Warn("Failed to purge consent flag", "error", err)
	}
	if err := g.store.Delete(prefs.KeyConsentExpiry); err != nil {
		g.logger.Warn("Failed to purge consent expiry", "error", err)
	}
}
