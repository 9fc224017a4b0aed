package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRedirectDelay is how long a role mismatch notice stays up before
// the login redirect.
const DefaultRedirectDelay = 2 * time.Second

// Options configures the dashboard Controller. Every collaborator is an
// interface so hosts can swap implementations; nil fields get safe defaults.
type Options struct {
	// Role is the role this dashboard serves. Empty accepts any known role.
	Role     Role
	Sessions SessionStore
	// Registry overrides the default section list for the session role.
	Registry *Registry
	Loaders  map[string]Loader
	// Manifest is an optional YAML section manifest merged into the registry.
	Manifest  string
	Converter Converter
	Mutator   Mutator

	View       View
	Renderer   Renderer
	Prompter   Prompter
	Redirector Redirector
	Hook       EventHook
	Validator  ActionValidator

	LoginURL          string
	RedirectDelay     time.Duration
	CacheMaxAge       time.Duration
	LoadTimeout       time.Duration
	ConversionTimeout time.Duration

	Telemetry Telemetry
	Logger    *zap.Logger
}

// Controller boots one role dashboard: it gates startup on the Session Guard
// and then drives navigation and actions for the authorized session.
type Controller struct {
	opts  Options
	guard *Guard
	wait  func(ctx context.Context, d time.Duration) error

	mu        sync.RWMutex
	session   Session
	registry  *Registry
	loader    *SectionLoader
	annotator *PriceAnnotator
	nav       *Navigator
	actions   *Actions
}

// NewController builds a Controller with safe defaults.
func NewController(opts Options) *Controller {
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore()
	}
	if opts.View == nil {
		opts.View = noopView{}
	}
	if opts.Prompter == nil {
		opts.Prompter = declinePrompter{}
	}
	if opts.Redirector == nil {
		opts.Redirector = noopRedirector{}
	}
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	// Negative delays redirect immediately; zero takes the default.
	switch {
	case opts.RedirectDelay < 0:
		opts.RedirectDelay = 0
	case opts.RedirectDelay == 0:
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Controller{
		opts:  opts,
		guard: NewGuard(opts.Sessions),
		wait:  sleepContext,
	}
}

// Boot checks access and activates the initial section. A denied session is
// redirected to the login URL and the *AccessError is returned; a role
// mismatch is announced first and redirected after RedirectDelay.
func (c *Controller) Boot(ctx context.Context, marked string) error {
	c.opts.View.ShowOverlay(true)
	defer c.opts.View.ShowOverlay(false)

	session, err := c.guard.CheckAccess(ctx, c.opts.Role)
	if err != nil {
		c.deny(ctx, err)
		return err
	}

	registry, err := c.buildRegistry(session.Role)
	if err != nil {
		return err
	}
	loader := NewSectionLoader(registry, session, LoaderOptions{
		Cache:     NewSectionDataCache(c.opts.CacheMaxAge),
		Timeout:   c.opts.LoadTimeout,
		Telemetry: c.opts.Telemetry,
		Logger:    c.opts.Logger.Named("loader"),
	})
	var annotator *PriceAnnotator
	if c.opts.Converter != nil {
		annotator = NewPriceAnnotator(c.opts.Converter, NewConversionCache(), AnnotatorOptions{
			Timeout:   c.opts.ConversionTimeout,
			Telemetry: c.opts.Telemetry,
			Logger:    c.opts.Logger.Named("prices"),
		})
	}
	nav := NewNavigator(registry, loader, session, NavigatorOptions{
		View:       c.opts.View,
		Renderer:   c.opts.Renderer,
		Annotator:  annotator,
		Prompter:   c.opts.Prompter,
		Redirector: c.opts.Redirector,
		Sessions:   c.opts.Sessions,
		LoginURL:   c.opts.LoginURL,
		Hook:       c.opts.Hook,
		Telemetry:  c.opts.Telemetry,
		Logger:     c.opts.Logger.Named("nav"),
	})
	var actions *Actions
	if c.opts.Mutator != nil {
		actions = NewActions(c.opts.Mutator, loader, nav, ActionsOptions{
			Guard:     c.guard,
			Validator: c.opts.Validator,
			Prompter:  c.opts.Prompter,
			View:      c.opts.View,
			Telemetry: c.opts.Telemetry,
			Logger:    c.opts.Logger.Named("actions"),
		})
	}

	c.mu.Lock()
	c.session = session
	c.registry = registry
	c.loader = loader
	c.annotator = annotator
	c.nav = nav
	c.actions = actions
	c.mu.Unlock()

	c.opts.Logger.Info("dashboard booted",
		zap.String("role", string(session.Role)),
		zap.Strings("sections", registry.VisibleFor(session.Role)),
	)
	return nav.Start(ctx, marked)
}

func (c *Controller) buildRegistry(role Role) (*Registry, error) {
	registry := c.opts.Registry
	if registry == nil {
		var err error
		registry, err = NewRoleRegistry(role, c.opts.Loaders)
		if err != nil {
			return nil, err
		}
	}
	if c.opts.Manifest != "" {
		if _, err := registry.LoadManifestFile(c.opts.Manifest); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (c *Controller) deny(ctx context.Context, err error) {
	var access *AccessError
	if !errors.As(err, &access) {
		return
	}
	c.opts.Logger.Info("dashboard access denied",
		zap.String("reason", string(access.Reason)),
		zap.String("required", string(access.Required)),
		zap.String("actual", string(access.Actual)),
	)
	c.opts.Telemetry.Record(ctx, "dashboard.session.denied", map[string]any{
		"reason":   string(access.Reason),
		"required": string(access.Required),
	})
	if !access.Immediate() {
		c.opts.View.ShowMessage(MessageError, denialNotice(access))
		if err := c.wait(ctx, c.opts.RedirectDelay); err != nil {
			return
		}
	}
	if err := c.opts.Redirector.Redirect(ctx, c.opts.LoginURL); err != nil {
		c.opts.Logger.Warn("login redirect failed", zap.Error(err))
	}
}

func denialNotice(access *AccessError) string {
	if access.Required == "" {
		return "Access denied. Please log in again."
	}
	return fmt.Sprintf("Access denied. This dashboard is for %s accounts only.", access.Required)
}

// Select activates a section by id or anchor.
func (c *Controller) Select(ctx context.Context, id string) error {
	nav, err := c.navigator()
	if err != nil {
		return err
	}
	return nav.Select(ctx, id)
}

// Reload refetches the active section.
func (c *Controller) Reload(ctx context.Context) error {
	nav, err := c.navigator()
	if err != nil {
		return err
	}
	return nav.Reload(ctx)
}

// ToggleSidebar flips the sidebar and returns its new state.
func (c *Controller) ToggleSidebar() (bool, error) {
	nav, err := c.navigator()
	if err != nil {
		return false, err
	}
	return nav.ToggleSidebar(), nil
}

// Logout confirms and tears down the session.
func (c *Controller) Logout(ctx context.Context) error {
	nav, err := c.navigator()
	if err != nil {
		return err
	}
	return nav.Logout(ctx)
}

// Run executes a mutation action.
func (c *Controller) Run(ctx context.Context, req ActionRequest) (ActionOutcome, error) {
	c.mu.RLock()
	actions := c.actions
	booted := c.nav != nil
	c.mu.RUnlock()
	if !booted {
		return ActionOutcome{}, ErrNotBooted
	}
	if actions == nil {
		return ActionOutcome{}, fmt.Errorf("%w: no mutator configured", ErrActionNotFound)
	}
	return actions.Run(ctx, req)
}

// AwaitPrices blocks until background price conversions have finished. It
// returns at once before Boot.
func (c *Controller) AwaitPrices() {
	c.mu.RLock()
	nav := c.nav
	c.mu.RUnlock()
	if nav != nil {
		nav.AwaitPrices()
	}
}

// State returns the navigation snapshot. It is zero before Boot.
func (c *Controller) State() NavigationState {
	nav, err := c.navigator()
	if err != nil {
		return NavigationState{}
	}
	return nav.State()
}

// SectionData returns the cached entry for a section.
func (c *Controller) SectionData(id string) (SectionData, bool) {
	c.mu.RLock()
	loader := c.loader
	c.mu.RUnlock()
	if loader == nil {
		return SectionData{}, false
	}
	return loader.Cache().Get(NormalizeSectionID(id))
}

// Menu returns the sidebar for the booted session.
func (c *Controller) Menu() []MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.registry == nil {
		return nil
	}
	return MenuFor(c.registry, c.session.Role)
}

// Actions lists the actions available to the booted session.
func (c *Controller) Actions() []ActionDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.actions == nil {
		return nil
	}
	return c.actions.Available(c.session.Role)
}

// Session returns the authorized session, if booted.
func (c *Controller) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.nav != nil
}

// Registry returns the section registry, if booted.
func (c *Controller) Registry() *Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

func (c *Controller) navigator() (*Navigator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.nav == nil {
		return nil, ErrNotBooted
	}
	return c.nav, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
