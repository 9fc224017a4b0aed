package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLoginURL is where logout and access denial send the viewer.
const DefaultLoginURL = "/login"

// NavigatorOptions configures a Navigator. Every collaborator has a safe default.
type NavigatorOptions struct {
	View       View
	Renderer   Renderer
	Annotator  *PriceAnnotator
	Prompter   Prompter
	Redirector Redirector
	// Sessions is cleared on logout.
	Sessions  SessionStore
	LoginURL  string
	Hook      EventHook
	Telemetry Telemetry
	Logger    *zap.Logger
}

// Navigator is the navigation state machine for one role dashboard. It owns
// the active section and sequences deactivate, load, render and mount for
// each activation, then converts prices in the background. Late results from
// superseded activations are dropped.
type Navigator struct {
	registry *Registry
	loader   *SectionLoader
	session  Session
	opts     NavigatorOptions

	mu           sync.Mutex
	state        NavigationState
	generation   uint64
	cancelActive context.CancelFunc
	activeCtx    context.Context
	annotations  sync.WaitGroup
}

// NewNavigator builds a navigator for session over registry.
func NewNavigator(registry *Registry, loader *SectionLoader, session Session, opts NavigatorOptions) *Navigator {
	if opts.View == nil {
		opts.View = noopView{}
	}
	if opts.Renderer == nil {
		opts.Renderer = TableRenderer{}
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
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Navigator{
		registry: registry,
		loader:   loader,
		session:  session,
		opts:     opts,
		state:    NavigationState{SidebarOpen: !opts.View.IsNarrow()},
	}
}

// State returns a snapshot of the machine.
func (n *Navigator) State() NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Session returns the viewer session the navigator serves.
func (n *Navigator) Session() Session {
	return n.session
}

// Visible returns the section ids the viewer can reach.
func (n *Navigator) Visible() []string {
	return n.registry.VisibleFor(n.session.Role)
}

// ActiveContext is cancelled when the current section is deactivated.
// Per-section timers and listeners should bind to it.
func (n *Navigator) ActiveContext() context.Context {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.activeCtx == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return n.activeCtx
}

// Start performs the first activation: the marked section when it is
// reachable, else the first reachable section.
func (n *Navigator) Start(ctx context.Context, marked string) error {
	n.mu.Lock()
	switch n.state.Phase {
	case PhaseLoggingOut:
		n.mu.Unlock()
		return ErrNavigationClosed
	case PhaseUninitialized:
	default:
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	def, ok := n.initialSection(marked)
	if !ok {
		return ErrNoEligibleSection
	}
	if n.session.Role == RoleUser && n.session.Currency != "" {
		n.opts.View.ShowCurrencyIndicator(n.session.PreferredCurrency())
	}
	n.activate(ctx, def, "start")
	return nil
}

func (n *Navigator) initialSection(marked string) (SectionDescriptor, bool) {
	if marked != "" {
		if def, ok := n.reachable(marked); ok && !def.Logout {
			return def, true
		}
	}
	for _, id := range n.Visible() {
		def, ok := n.registry.Section(id)
		if ok && !def.Logout {
			return def, true
		}
	}
	return SectionDescriptor{}, false
}

func (n *Navigator) reachable(id string) (SectionDescriptor, bool) {
	def, ok := n.registry.Section(id)
	if !ok {
		return SectionDescriptor{}, false
	}
	if !def.Logout && !n.session.Role.Satisfies(def.RequiredRole) {
		return SectionDescriptor{}, false
	}
	return def, true
}

// Select activates section id. Unknown or unreachable ids are ignored and
// re-selecting the active section does nothing. Selecting a logout section
// starts the logout flow.
func (n *Navigator) Select(ctx context.Context, id string) error {
	def, ok := n.reachable(id)
	n.mu.Lock()
	if n.state.Phase == PhaseLoggingOut {
		n.mu.Unlock()
		return ErrNavigationClosed
	}
	if !ok {
		current := n.state.ActiveSection
		n.mu.Unlock()
		n.opts.Logger.Debug("ignoring selection", zap.String("section", id))
		n.opts.Telemetry.Record(ctx, "dashboard.section.ignored", map[string]any{
			"section": id,
			"active":  current,
		})
		return nil
	}
	if def.Logout {
		n.mu.Unlock()
		return n.Logout(ctx)
	}
	if (n.state.Phase == PhaseActive && n.state.ActiveSection == def.ID) ||
		(n.state.Phase == PhaseActivating && n.state.Pending == def.ID) {
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()
	n.activate(ctx, def, "select")
	return nil
}

// Reload refetches the active section, bypassing its cache entry.
func (n *Navigator) Reload(ctx context.Context) error {
	n.mu.Lock()
	if n.state.Phase == PhaseLoggingOut {
		n.mu.Unlock()
		return ErrNavigationClosed
	}
	id := n.state.ActiveSection
	if n.state.Phase == PhaseActivating {
		id = n.state.Pending
	}
	n.mu.Unlock()
	if id == "" {
		return nil
	}
	def, ok := n.registry.Section(id)
	if !ok {
		return nil
	}
	n.loader.Invalidate(ctx, def.ID)
	n.activate(ctx, def, "reload")
	return nil
}

// ToggleSidebar flips the sidebar state and returns the new value.
func (n *Navigator) ToggleSidebar() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.SidebarOpen = !n.state.SidebarOpen
	n.opts.View.SetSidebarOpen(n.state.SidebarOpen)
	return n.state.SidebarOpen
}

func (n *Navigator) activate(ctx context.Context, def SectionDescriptor, reason string) {
	n.mu.Lock()
	n.generation++
	gen := n.generation
	previous := n.state.ActiveSection
	pending := n.state.Pending
	n.state.Phase = PhaseActivating
	n.state.Pending = def.ID
	if n.cancelActive != nil {
		n.cancelActive()
		n.cancelActive = nil
		n.activeCtx = nil
	}
	view := n.opts.View
	if previous != "" && previous != def.ID {
		view.SetActive(previous, false)
	}
	if pending != "" && pending != previous && pending != def.ID {
		view.SetActive(pending, false)
	}
	view.SetActive(def.ID, true)
	title := def.Title
	if title == "" {
		title = DefaultHeaderTitle(n.session.Role)
	}
	view.SetTitle(title)
	n.mu.Unlock()

	started := time.Now()
	data, err := n.loader.Load(ctx, def.ID)
	if err != nil {
		data = SectionData{SectionID: def.ID, State: CacheError, Err: err}
	}
	if n.stale(gen) {
		n.recordStale(ctx, def.ID)
		return
	}

	content, renderErr := n.opts.Renderer.Render(ctx, def, data)
	if renderErr != nil {
		n.opts.Logger.Warn("section render failed", zap.String("section", def.ID), zap.Error(renderErr))
	}
	convert := false
	if content != nil && n.opts.Annotator != nil {
		if n.opts.Annotator.Converts(n.session) {
			ApplyFallback(content)
			convert = true
		} else {
			n.opts.Annotator.Annotate(ctx, content, n.session)
		}
	}

	n.mu.Lock()
	if gen != n.generation || n.state.Phase == PhaseLoggingOut {
		n.mu.Unlock()
		n.recordStale(ctx, def.ID)
		return
	}
	n.state.Phase = PhaseActive
	n.state.ActiveSection = def.ID
	n.state.Pending = ""
	n.activeCtx, n.cancelActive = context.WithCancel(context.WithoutCancel(ctx))
	activeCtx := n.activeCtx
	if view.IsNarrow() && n.state.SidebarOpen {
		n.state.SidebarOpen = false
		view.SetSidebarOpen(false)
	}
	if content != nil {
		view.Mount(def.ID, content)
	}
	if data.State == CacheError && data.Err != nil {
		view.ShowMessage(MessageError, data.Err.Error())
	}
	n.mu.Unlock()

	n.opts.Telemetry.Record(ctx, "dashboard.section.activate", map[string]any{
		"section": def.ID,
		"reason":  reason,
		"state":   data.State.String(),
		"elapsed": time.Since(started).String(),
	})
	n.notify(ctx, def.ID, reason)

	if convert {
		n.annotations.Add(1)
		go n.annotate(activeCtx, gen, def.ID, content)
	}
}

// annotate converts prices in mounted content. It runs after the section is
// active so a slow conversion never holds up navigation; results for a
// section that was deactivated meanwhile are dropped.
func (n *Navigator) annotate(ctx context.Context, gen uint64, id string, content Node) {
	defer n.annotations.Done()
	result := n.opts.Annotator.Annotate(ctx, content, n.session)
	if result.Discarded || n.stale(gen) {
		n.recordStale(ctx, id)
		return
	}
	if pv, ok := n.opts.View.(PriceView); ok {
		pv.PricesUpdated(id, content)
	}
	n.notify(ctx, id, "prices")
}

// AwaitPrices blocks until every background price conversion has finished.
func (n *Navigator) AwaitPrices() {
	n.annotations.Wait()
}

func (n *Navigator) stale(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return gen != n.generation || n.state.Phase == PhaseLoggingOut
}

func (n *Navigator) recordStale(ctx context.Context, id string) {
	n.opts.Logger.Debug("discarding superseded activation", zap.String("section", id))
	n.opts.Telemetry.Record(ctx, "dashboard.section.stale", map[string]any{"section": id})
}

// Logout asks the viewer to confirm, then clears every session store and the
// page caches and redirects to the login URL. The machine is closed afterwards.
func (n *Navigator) Logout(ctx context.Context) error {
	n.mu.Lock()
	if n.state.Phase == PhaseLoggingOut {
		n.mu.Unlock()
		return ErrNavigationClosed
	}
	n.mu.Unlock()

	ok, err := n.opts.Prompter.Confirm(ctx, "Are you sure you want to logout?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrActionCancelled
	}

	n.mu.Lock()
	n.generation++
	previous := n.state.ActiveSection
	n.state.Phase = PhaseLoggingOut
	n.state.Pending = ""
	if n.cancelActive != nil {
		n.cancelActive()
		n.cancelActive = nil
		n.activeCtx = nil
	}
	if previous != "" {
		n.opts.View.SetActive(previous, false)
	}
	n.mu.Unlock()

	var logoutErr error
	if n.opts.Sessions != nil {
		if err := n.opts.Sessions.Clear(ctx); err != nil {
			n.opts.Logger.Error("clearing session failed", zap.Error(err))
			logoutErr = errors.Join(logoutErr, err)
		}
	}
	n.loader.Cache().Reset()
	if n.opts.Annotator != nil {
		n.opts.Annotator.Cache().Flush()
	}
	n.opts.Telemetry.Record(ctx, "dashboard.session.logout", map[string]any{"role": string(n.session.Role)})
	n.notify(ctx, previous, "logout")
	if err := n.opts.Redirector.Redirect(ctx, n.opts.LoginURL); err != nil {
		logoutErr = errors.Join(logoutErr, err)
	}
	return logoutErr
}

func (n *Navigator) notify(ctx context.Context, sectionID, reason string) {
	event := SectionEvent{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		Reason:    reason,
		At:        time.Now().UTC(),
	}
	if err := n.opts.Hook.SectionChanged(ctx, event); err != nil {
		n.opts.Logger.Warn("section event hook failed", zap.String("reason", reason), zap.Error(err))
	}
}

type noopEventHook struct{}

func (noopEventHook) SectionChanged(context.Context, SectionEvent) error { return nil }
