package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navFixture struct {
	nav        *Navigator
	loader     *SectionLoader
	view       *recordingView
	prompter   *scriptedPrompter
	redirector *recordingRedirector
	sessions   *InMemorySessionStore
	telemetry  *recordingTelemetry
	hook       *BroadcastHook
	loaders    map[string]*countingLoader
}

func newNavFixture(t *testing.T, session Session, narrow bool) *navFixture {
	t.Helper()
	counting := map[string]*countingLoader{}
	loaders := map[string]Loader{}
	for name := range stubLoaders() {
		l := &countingLoader{records: []Record{{"_id": name + "-1"}}}
		counting[name] = l
		loaders[name] = l
	}
	reg, err := NewRoleRegistry(session.Role, loaders)
	require.NoError(t, err)
	view := newRecordingView()
	view.narrow = narrow
	f := &navFixture{
		view:       view,
		prompter:   &scriptedPrompter{answer: true},
		redirector: &recordingRedirector{},
		sessions:   NewInMemorySessionStore(session),
		telemetry:  &recordingTelemetry{},
		hook:       NewBroadcastHook(),
		loaders:    counting,
	}
	f.loader = NewSectionLoader(reg, session, LoaderOptions{Telemetry: f.telemetry})
	f.nav = NewNavigator(reg, f.loader, session, NavigatorOptions{
		View:       view,
		Prompter:   f.prompter,
		Redirector: f.redirector,
		Sessions:   f.sessions,
		LoginURL:   "/login.html",
		Hook:       f.hook,
		Telemetry:  f.telemetry,
	})
	return f
}

func TestStartActivatesFirstEligibleSection(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	require.NoError(t, f.nav.Start(context.Background(), ""))

	state := f.nav.State()
	assert.Equal(t, PhaseActive, state.Phase)
	assert.Equal(t, "overview", state.ActiveSection)
	assert.Equal(t, []string{"Admin Overview"}, f.view.titles)
	assert.Equal(t, []string{"overview"}, f.view.mounts)
}

func TestStartHonorsMarkedSection(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleSeller}, false)
	require.NoError(t, f.nav.Start(context.Background(), "#wallet"))
	assert.Equal(t, "wallet", f.nav.State().ActiveSection)
}

func TestStartIgnoresUnreachableMarkedSection(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser}, false)
	require.NoError(t, f.nav.Start(context.Background(), "manage-users"))
	assert.Equal(t, "overview", f.nav.State().ActiveSection)
}

func TestStartWithoutEligibleSection(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "manage-users", RequiredRole: RoleAdmin}))
	session := Session{Token: "t", Role: RoleUser}
	nav := NewNavigator(reg, NewSectionLoader(reg, session, LoaderOptions{}), session, NavigatorOptions{})

	err := nav.Start(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoEligibleSection)
	assert.Equal(t, PhaseUninitialized, nav.State().Phase)
}

func TestSelectDeactivatesPreviousSection(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, ""))
	require.NoError(t, f.nav.Select(ctx, "#manage-users"))

	assert.Equal(t, "manage-users", f.nav.State().ActiveSection)
	assert.Equal(t, []string{"manage-users"}, f.view.activeIDs())
	assert.Equal(t, 1, f.loaders[LoaderUsers].Calls())
}

func TestReselectingActiveSectionIsNoop(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, "manage-orders"))
	require.NoError(t, f.nav.Select(ctx, "manage-orders"))
	require.NoError(t, f.nav.Select(ctx, "#manage-orders"))

	assert.Equal(t, 1, f.loaders[LoaderOrders].Calls())
	assert.Len(t, f.view.mounts, 1)
}

func TestReactivationUsesCache(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, "manage-users"))
	require.NoError(t, f.nav.Select(ctx, "manage-sellers"))
	require.NoError(t, f.nav.Select(ctx, "manage-users"))

	assert.Equal(t, 1, f.loaders[LoaderUsers].Calls())
	assert.Equal(t, "manage-users", f.nav.State().ActiveSection)
}

func TestSelectUnknownSectionLeavesStateUnchanged(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, "manage-users"))
	before := f.nav.State()
	mounts := len(f.view.mounts)

	require.NoError(t, f.nav.Select(ctx, "#does-not-exist"))

	assert.Equal(t, before, f.nav.State())
	assert.Len(t, f.view.mounts, mounts)
	assert.Equal(t, 1, f.telemetry.count("dashboard.section.ignored"))
}

func TestSelectForbiddenSectionIsIgnored(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleSeller}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, ""))
	require.NoError(t, f.nav.Select(ctx, "manage-users"))
	assert.Equal(t, "overview", f.nav.State().ActiveSection)
}

func TestNarrowLayoutClosesSidebarOnActivation(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser}, true)
	ctx := context.Background()
	assert.False(t, f.nav.State().SidebarOpen)
	assert.True(t, f.nav.ToggleSidebar())

	require.NoError(t, f.nav.Select(ctx, "catalog"))
	assert.False(t, f.nav.State().SidebarOpen)
	assert.Equal(t, []bool{true, false}, f.view.sidebar)
}

func TestWideLayoutKeepsSidebar(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser}, false)
	require.NoError(t, f.nav.Start(context.Background(), "catalog"))
	assert.True(t, f.nav.State().SidebarOpen)
}

func TestLoadErrorStillActivatesSection(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser}, false)
	f.loaders[LoaderOrders].err = &RemoteError{Status: 500, Message: "Orders are unavailable"}

	require.NoError(t, f.nav.Start(context.Background(), "my-orders"))

	assert.Equal(t, PhaseActive, f.nav.State().Phase)
	assert.Equal(t, "my-orders", f.nav.State().ActiveSection)
	msg, ok := f.view.lastMessage()
	require.True(t, ok)
	assert.Equal(t, MessageError, msg.level)
	assert.Equal(t, "Orders are unavailable", msg.text)
}

func TestStaleActivationIsDiscarded(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, ""))

	slow := f.loaders[LoaderUsers]
	slow.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- f.nav.Select(ctx, "manage-users") }()
	require.Eventually(t, func() bool { return slow.Calls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, PhaseActivating, f.nav.State().Phase)

	require.NoError(t, f.nav.Select(ctx, "manage-orders"))
	close(slow.block)
	require.NoError(t, <-done)

	state := f.nav.State()
	assert.Equal(t, PhaseActive, state.Phase)
	assert.Equal(t, "manage-orders", state.ActiveSection)
	assert.NotContains(t, f.view.mounts, "manage-users")
	assert.Equal(t, 1, f.telemetry.count("dashboard.section.stale"))
}

func TestReloadBypassesCache(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, "manage-products"))
	require.NoError(t, f.nav.Reload(ctx))
	assert.Equal(t, 2, f.loaders[LoaderProducts].Calls())
}

func TestActiveContextCancelledOnDeactivate(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, ""))
	sectionCtx := f.nav.ActiveContext()
	require.NoError(t, sectionCtx.Err())

	require.NoError(t, f.nav.Select(ctx, "manage-orders"))
	assert.ErrorIs(t, sectionCtx.Err(), context.Canceled)
	assert.NoError(t, f.nav.ActiveContext().Err())
}

func TestLogoutRequiresConfirmation(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleSeller}, false)
	ctx := context.Background()
	require.NoError(t, f.nav.Start(ctx, ""))
	f.prompter.answer = false

	err := f.nav.Select(ctx, SectionLogout)
	assert.ErrorIs(t, err, ErrActionCancelled)
	assert.Equal(t, PhaseActive, f.nav.State().Phase)
	_, ok, _ := f.sessions.Load(ctx)
	assert.True(t, ok, "declined logout keeps the session")
	assert.Empty(t, f.redirector.urls)
}

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleAdmin}, false)
	ctx := context.Background()
	events, cancel := f.hook.Subscribe()
	defer cancel()
	require.NoError(t, f.nav.Start(ctx, "manage-users"))

	require.NoError(t, f.nav.Select(ctx, "#"+SectionAdminLogout))

	assert.Equal(t, PhaseLoggingOut, f.nav.State().Phase)
	_, ok, _ := f.sessions.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, []string{"/login.html"}, f.redirector.urls)
	assert.Equal(t, 0, f.loader.Cache().Len())
	assert.Len(t, f.prompter.messages, 1)

	assert.ErrorIs(t, f.nav.Select(ctx, "manage-users"), ErrNavigationClosed)
	assert.ErrorIs(t, f.nav.Reload(ctx), ErrNavigationClosed)

	var reasons []string
	for len(events) > 0 {
		reasons = append(reasons, (<-events).Reason)
	}
	assert.Equal(t, []string{"start", "logout"}, reasons)
}

func TestLogoutPropagatesPromptFailure(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser}, false)
	f.prompter.err = errors.New("tty closed")
	require.NoError(t, f.nav.Start(context.Background(), ""))
	assert.EqualError(t, f.nav.Logout(context.Background()), "tty closed")
}

func TestBuyerSessionShowsCurrencyIndicator(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser, Currency: "eur"}, false)
	require.NoError(t, f.nav.Start(context.Background(), ""))
	assert.Equal(t, "EUR", f.view.indicator)
}

func TestActivationAnnotatesRenderedPrices(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser, Currency: "EUR"}, false)
	f.loaders[LoaderProducts].records = []Record{
		{"_id": "p1", "name": "Lamp", "price": 25.0, "currency": "USD"},
		{"_id": "p2", "name": "Rug", "price": "25", "currency": "USD"},
		{"_id": "p3", "name": "Kettle", "price": 40, "currency": "GBP"},
	}
	converter := &fakeConverter{}
	f.nav.opts.Annotator = NewPriceAnnotator(converter, nil, AnnotatorOptions{})

	require.NoError(t, f.nav.Start(context.Background(), "catalog"))
	f.nav.AwaitPrices()

	calls := converter.Calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0], 2)
	content, ok := f.view.mounted["catalog"].(*Element)
	require.True(t, ok)
	var texts []string
	for _, ann := range ScanPrices(content) {
		texts = append(texts, ann.Node.(*Element).Text())
	}
	assert.Equal(t, []string{"EUR 50.00", "EUR 50.00", "EUR 80.00"}, texts)
}

func TestActivationMountsBeforeConversionReturns(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser, Currency: "EUR"}, false)
	f.loaders[LoaderProducts].records = []Record{{"_id": "p1", "name": "Lamp", "price": 25, "currency": "USD"}}
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := ConverterFunc(func(ctx context.Context, _, target string, pairs []ConversionPair) ([]string, error) {
		close(entered)
		<-release
		return []string{target + " 22.50"}, nil
	})
	f.nav.opts.Annotator = NewPriceAnnotator(blocking, nil, AnnotatorOptions{Timeout: 5 * time.Second})

	require.NoError(t, f.nav.Start(context.Background(), "catalog"))
	<-entered

	state := f.nav.State()
	assert.Equal(t, PhaseActive, state.Phase)
	assert.Equal(t, "catalog", state.ActiveSection)
	require.Equal(t, 1, f.view.mountCount())
	content := f.view.mounted["catalog"].(*Element)
	prices := ScanPrices(content)
	require.Len(t, prices, 1)
	assert.Equal(t, "USD 25.00", prices[0].Node.(*Element).Text())
	assert.Empty(t, f.view.pricedIDs())

	close(release)
	f.nav.AwaitPrices()
	assert.Equal(t, "EUR 22.50", prices[0].Node.(*Element).Text())
	assert.Equal(t, []string{"catalog"}, f.view.pricedIDs())
}

func TestConversionForDeactivatedSectionIsDropped(t *testing.T) {
	f := newNavFixture(t, Session{Token: "t", Role: RoleUser, Currency: "EUR"}, false)
	f.loaders[LoaderProducts].records = []Record{{"_id": "p1", "name": "Lamp", "price": 25, "currency": "USD"}}
	entered := make(chan struct{})
	blocking := ConverterFunc(func(ctx context.Context, _, target string, pairs []ConversionPair) ([]string, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	f.nav.opts.Annotator = NewPriceAnnotator(blocking, nil, AnnotatorOptions{Timeout: 5 * time.Second})
	ctx := context.Background()

	require.NoError(t, f.nav.Start(ctx, "catalog"))
	<-entered
	require.NoError(t, f.nav.Select(ctx, "my-orders"))
	f.nav.AwaitPrices()

	content := f.view.mounted["catalog"].(*Element)
	prices := ScanPrices(content)
	require.Len(t, prices, 1)
	assert.Equal(t, "USD 25.00", prices[0].Node.(*Element).Text())
	assert.Empty(t, f.view.pricedIDs())
	assert.Zero(t, f.telemetry.count("dashboard.prices.fallback"))
}
