// Package tour implements the replayable multi-step spotlight tour
// that walks a first-time user through the dashboard, plus the
// specialized add-key tutorial variant. The engine is a small state
// machine: Inactive, or Active at a step index; completing or skipping
// collapses back to Inactive with a persisted completed flag that
// suppresses future auto-starts. Nothing in this package is fatal:
// anchor-resolution failures degrade to a default tooltip position and
// store errors are logged and absorbed.
package tour

import (
	"log/slog"
	"sync"
	"time"

	"github.com/keypilot/keypilot/prefs"
)

// Step is one stop of a tour. Step tables are definition data, never
// mutated by the engine.
type Step struct {
	ID          string
	Title       string
	Description string

	// Target identifies the anchor element in the hosting view. The
	// engine only requires that resolving it can fail.
	Target string

	Placement   Placement
	Highlighted bool

	// Action is an optional hint such as "click".
	Action string
}

// AnchorResolver resolves a step target to an on-screen rectangle in
// the current view. Resolution failing (ok=false) is an expected,
// non-fatal condition.
type AnchorResolver interface {
	Resolve(target string) (Rect, bool)
}

// ResolverFunc adapts a function to AnchorResolver.
type ResolverFunc func(target string) (Rect, bool)

// Resolve implements AnchorResolver.
func (f ResolverFunc) Resolve(target string) (Rect, bool) {
	return f(target)
}

// Keys names the persisted flags a tour instance owns. FirstVisit is
// empty for tours that do not track it.
type Keys struct {
	Completed  string
	InProgress string
	FirstVisit string
}

// defaultAutoStartRetryDelay is how long MaybeAutoStart waits before
// its single retry when the first anchor has not rendered yet.
const defaultAutoStartRetryDelay = 500 * time.Millisecond

// Engine drives one tour. Two instances exist in the application,
// with disjoint persisted flags; see Dashboard and AddKeyTutorial.
type Engine struct {
	mu sync.Mutex

	name     string
	steps    []Step
	keys     Keys
	store    prefs.Store
	resolver AnchorResolver
	logger   *slog.Logger

	retryDelay time.Duration
	onComplete func()

	active bool
	index  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRetryDelay overrides the auto-start retry delay, for tests.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.retryDelay = d
	}
}

// WithOnComplete sets the callback fired when the tour finishes via
// its last step. Skipping reaches the same terminal state without
// firing it; celebratory UI belongs to the host, not the engine.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// New creates a tour engine. steps must be non-empty.
func New(name string, steps []Step, keys Keys, store prefs.Store, resolver AnchorResolver, opts ...Option) *Engine {
	e := &Engine{
		name:       name,
		steps:      steps,
		keys:       keys,
		store:      store,
		resolver:   resolver,
		logger:     slog.Default(),
		retryDelay: defaultAutoStartRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dashboard creates the dashboard walkthrough engine.
func Dashboard(store prefs.Store, resolver AnchorResolver, opts ...Option) *Engine {
	return New("dashboard", DashboardSteps(), Keys{
		Completed:  prefs.KeyDashboardTourCompleted,
		InProgress: prefs.KeyDashboardTourInProgress,
	}, store, resolver, opts...)
}

// AddKeyTutorial creates the add-key form tutorial engine. It
// additionally maintains the first-visit flag: the tutorial only
// auto-starts on the very first visit to the form.
func AddKeyTutorial(store prefs.Store, resolver AnchorResolver, opts ...Option) *Engine {
	return New("addkey", AddKeySteps(), Keys{
		Completed:  prefs.KeyAddKeyTutorialCompleted,
		InProgress: prefs.KeyAddKeyTutorialInProgress,
		FirstVisit: prefs.KeyAddKeyTutorialFirstVisit,
	}, store, resolver, opts...)
}

// Name returns the tour's name.
func (e *Engine) Name() string {
	return e.name
}

// Active reports whether the tour is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// StepIndex returns the current zero-based step index.
func (e *Engine) StepIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// TotalSteps returns the number of steps in this tour.
func (e *Engine) TotalSteps() int {
	return len(e.steps)
}

// Completed reports whether the tour has been finished or skipped.
func (e *Engine) Completed() bool {
	return e.flag(e.keys.Completed)
}

// CurrentStep returns the active step definition.
func (e *Engine) CurrentStep() (Step, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return Step{}, false
	}
	return e.steps[e.index], true
}

// CurrentAnchor resolves the active step's anchor. ok=false means the
// host should fall back to DefaultPosition for the tooltip and skip
// the spotlight highlight; the step content is still shown.
func (e *Engine) CurrentAnchor() (Rect, bool) {
	step, ok := e.CurrentStep()
	if !ok {
		return Rect{}, false
	}

	rect, ok := e.resolver.Resolve(step.Target)
	if !ok {
		e.logger.Debug("Tour anchor missing",
			"tour", e.name,
			"step", step.ID,
			"target", step.Target)
	}
	return rect, ok
}

// MaybeAutoStart starts the tour if it has never been completed, no
// other instance is mid-flight, and the first step's anchor is
// present. When the anchor is missing it retries once after a fixed
// delay, then gives up silently: auto-start is best-effort.
func (e *Engine) MaybeAutoStart() bool {
	if e.flag(e.keys.Completed) {
		return false
	}
	if e.flag(e.keys.InProgress) {
		// Another instance of this tour is mid-flight, likely a
		// remount; do not start a duplicate.
		return false
	}
	if e.keys.FirstVisit != "" {
		if value, found := e.get(e.keys.FirstVisit); found && value == "false" {
			return false
		}
	}

	if _, ok := e.resolver.Resolve(e.steps[0].Target); !ok {
		time.Sleep(e.retryDelay)
		if _, ok := e.resolver.Resolve(e.steps[0].Target); !ok {
			e.logger.Debug("Tour auto-start abandoned, first anchor missing",
				"tour", e.name,
				"target", e.steps[0].Target)
			return false
		}
	}

	e.Start()
	return true
}

// Start forces the tour active at step zero and marks the in-progress
// flag so a remount does not start a second instance.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active = true
	e.index = 0
	e.set(e.keys.InProgress, "true")
	if e.keys.FirstVisit != "" {
		e.set(e.keys.FirstVisit, "false")
	}

	e.logger.Debug("Tour started", "tour", e.name, "steps", len(e.steps))
}

// Next advances one step, or finishes the tour from the last step.
// Finishing fires the completion callback; see Skip for the silent
// variant.
func (e *Engine) Next() {
	e.mu.Lock()

	if !e.active {
		e.mu.Unlock()
		return
	}

	if e.index+1 < len(e.steps) {
		e.index++
		e.mu.Unlock()
		return
	}

	e.finishLocked()
	e.mu.Unlock()

	if e.onComplete != nil {
		e.onComplete()
	}
}

// Previous steps back; a no-op at the first step.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active || e.index == 0 {
		return
	}
	e.index--
}

// Skip abandons the tour. The end state is identical to finishing the
// last step, but no completion signal is raised. Skipping is
// unconditional: even an inactive tour lands in the terminal state,
// suppressing future auto-starts.
func (e *Engine) Skip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.finishLocked()
}

// Reset clears every persisted flag for this tour and returns to the
// never-seen state. Diagnostic use only.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.active = false
	e.index = 0
	e.del(e.keys.Completed)
	e.del(e.keys.InProgress)
	if e.keys.FirstVisit != "" {
		e.del(e.keys.FirstVisit)
	}
}

// finishLocked records the terminal state shared by completing and
// skipping. Caller must hold e.mu.
func (e *Engine) finishLocked() {
	e.active = false
	e.index = 0
	e.set(e.keys.Completed, "true")
	e.del(e.keys.InProgress)
	e.logger.Debug("Tour finished", "tour", e.name)
}

// flag reads a boolean preference, absorbing store errors as false.
func (e *Engine) flag(key string) bool {
	value, found := e.get(key)
	return found && value == "true"
}

func (e *Engine) get(key string) (string, bool) {
	value, found, err := e.store.Get(key)
	if err != nil {
		e.logger.Warn("Tour flag read failed", "key", key, "error", err)
		return "", false
	}
	return value, found
}

func (e *Engine) set(key, value string) {
	if err := e.store.Set(key, value); err != nil {
		e.logger.Warn("Tour flag write failed", "key", key, "error", err)
	}
}

func (e *Engine) del(key string) {
	if err := e.store.Delete(key); err != nil {
		e.logger.Warn("Tour flag delete failed", "key", key, "error", err)
	}
}
