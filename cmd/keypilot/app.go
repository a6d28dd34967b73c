package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/keypilot/keypilot/api"
	"github.com/keypilot/keypilot/config"
	"github.com/keypilot/keypilot/consent"
	"github.com/keypilot/keypilot/prefs"
	"github.com/keypilot/keypilot/session"
	"github.com/keypilot/keypilot/tour"
)

// app bundles the wired client core shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    prefs.Store
	client   *api.Client
	sessions *session.Manager
	gate     *consent.Gate
	registry *prometheus.Registry
}

// newApp loads configuration, opens the preference store, wires the
// API client to the session manager, and restores any persisted
// session. Restore runs here so that every command observes a settled
// authentication state before branching on it.
func newApp(configPath, logLevel string, ephemeral bool) (*app, error) {
	logger := newLogger(logLevel)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg, ephemeral, logger)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}

	registry := prometheus.NewRegistry()

	// The client and the session manager reference each other: the
	// client reports rejected credentials, the manager owns the
	// resulting state transition. The hook closes over the manager
	// variable to break the construction cycle.
	var sessions *session.Manager
	client := api.NewClient(cfg.Backend.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		api.WithLogger(logger),
		api.WithTokenSource(tokenSource(store, logger)),
		api.WithOnUnauthorized(func() {
			if sessions != nil {
				sessions.Invalidate()
			}
		}),
		api.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Backend.AnalyticsRPS), 1)),
		api.WithMetrics(api.NewMetrics(registry)),
	)

	sessions = session.NewManager(store, client, session.WithLogger(logger))

	sessions.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventNavigateLogin {
			fmt.Fprintln(os.Stderr, ev.Session.LastError)
			fmt.Fprintln(os.Stderr, "Run `keypilot login` to sign in again.")
		}
	})

	sessions.Restore()

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		sessions: sessions,
		gate:     consent.NewGate(store, consent.WithLogger(logger)),
		registry: registry,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close preference store", "error", err)
	}
}

// ctx returns a request context bounded by the configured backend
// timeout.
func (a *app) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.Backend.Timeout)
}

// requireAuth fails a command early when no valid session is held.
func (a *app) requireAuth() error {
	if !a.sessions.Current().Authenticated() {
		return fmt.Errorf("not signed in; run `keypilot login` first")
	}
	return nil
}

// dashboardTour builds the dashboard walkthrough over the virtual
// layout.
func (a *app) dashboardTour(opts ...tour.Option) *tour.Engine {
	opts = append([]tour.Option{tour.WithLogger(a.logger)}, opts...)
	return tour.Dashboard(a.store, dashboardLayout(), opts...)
}

// addKeyTutorial builds the add-key form tutorial over the virtual
// layout.
func (a *app) addKeyTutorial(opts ...tour.Option) *tour.Engine {
	opts = append([]tour.Option{tour.WithLogger(a.logger)}, opts...)
	return tour.AddKeyTutorial(a.store, addKeyLayout(), opts...)
}

// printJSON pretty-prints a raw backend payload.
func printJSON(payload json.RawMessage) {
	var buf any
	if err := json.Unmarshal(payload, &buf); err != nil {
		fmt.Println(string(payload))
		return
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		fmt.Println(string(payload))
		return
	}
	fmt.Println(string(pretty))
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStore(cfg *config.Config, ephemeral bool, logger *slog.Logger) (prefs.Store, error) {
	if ephemeral {
		return prefs.NewMemory(), nil
	}

	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}

	if cfg.Store.Backend == config.StoreBackendSQLite {
		return prefs.OpenSQLite(path)
	}
	return prefs.OpenFile(path, prefs.WithFileLogger(logger))
}

// tokenSource reads the persisted session token so that every request
// carries the credential even across processes.
func tokenSource(store prefs.Store, logger *slog.Logger) func() string {
	return func() string {
		token, _, err := store.Get(prefs.KeySessionToken)
		if err != nil {
			logger.Warn("Token read failed", "error", err)
			return ""
		}
		return token
	}
}
