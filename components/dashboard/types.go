package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role gates which sections and data a viewer can reach.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleUser   Role = "user"
)

// ParseRole normalizes a stored role claim. Unknown values report false.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleUser:
		return true
	}
	return false
}

// Satisfies reports whether r meets a section requirement. An empty
// requirement accepts any authenticated role.
func (r Role) Satisfies(required Role) bool {
	if required == "" {
		return r.Valid()
	}
	return r == required
}

// DefaultCurrency is used when the viewer or a price node carries no currency.
const DefaultCurrency = "USD"

// Session is the client-held credential plus role and display preferences.
type Session struct {
	Token    string `json:"token"`
	Role     Role   `json:"role"`
	Currency string `json:"currency,omitempty"`
	Location string `json:"location,omitempty"`
}

// PreferredCurrency returns the viewer currency or DefaultCurrency.
func (s Session) PreferredCurrency() string {
	if cur := strings.ToUpper(strings.TrimSpace(s.Currency)); cur != "" {
		return cur
	}
	return DefaultCurrency
}

// SectionDescriptor describes one independently loadable dashboard panel.
type SectionDescriptor struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	RequiredRole Role   `json:"required_role,omitempty" yaml:"required_role,omitempty"`
	// Loader names a capability registered on the Registry. Empty means the
	// section renders without remote data.
	Loader string `json:"loader,omitempty" yaml:"loader,omitempty"`
	// Resource is the server resource this section lists; mutations against it
	// invalidate the section.
	Resource string `json:"resource,omitempty" yaml:"resource,omitempty"`
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Logout   bool   `json:"logout,omitempty" yaml:"logout,omitempty"`
}

// Record is an opaque role-scoped row handed to render collaborators.
type Record map[string]any

// ID returns the record identifier using the API's `_id` or `id` key.
func (r Record) ID() string {
	for _, key := range []string{"_id", "id"} {
		if v, ok := r[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Loader is the per-section data capability.
type Loader interface {
	Load(ctx context.Context, req LoadRequest) ([]Record, error)
}

// LoaderFunc adapts a function into a Loader.
type LoaderFunc func(ctx context.Context, req LoadRequest) ([]Record, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, req LoadRequest) ([]Record, error) {
	return f(ctx, req)
}

// LoadRequest carries the section and viewer to a Loader.
type LoadRequest struct {
	Section SectionDescriptor
	Session Session
}

// CacheState tracks a SectionData entry lifecycle.
type CacheState int

const (
	CacheEmpty CacheState = iota
	CacheLoading
	CacheReady
	CacheError
)

func (s CacheState) String() string {
	switch s {
	case CacheLoading:
		return "loading"
	case CacheReady:
		return "ready"
	case CacheError:
		return "error"
	default:
		return "empty"
	}
}

// SectionData is one SectionDataCache entry.
type SectionData struct {
	SectionID string
	Records   []Record
	FetchedAt time.Time
	State     CacheState
	// Err holds the failure reason when State is CacheError.
	Err error
}

// NavPhase is the navigation machine state.
type NavPhase int

const (
	PhaseUninitialized NavPhase = iota
	PhaseActivating
	PhaseActive
	PhaseLoggingOut
)

func (p NavPhase) String() string {
	switch p {
	case PhaseActivating:
		return "activating"
	case PhaseActive:
		return "active"
	case PhaseLoggingOut:
		return "logging_out"
	default:
		return "uninitialized"
	}
}

// NavigationState is a snapshot of the navigation machine.
type NavigationState struct {
	Phase         NavPhase `json:"phase"`
	ActiveSection string   `json:"active_section,omitempty"`
	Pending       string   `json:"pending,omitempty"`
	SidebarOpen   bool     `json:"sidebar_open"`
}

// PriceAnnotation is an ephemeral price-bearing node found during a scan.
type PriceAnnotation struct {
	Node     Node
	Amount   decimal.Decimal
	Currency string
}

// Wallet is one currency bucket of a seller wallet.
type Wallet struct {
	Balance        decimal.Decimal `json:"balance"`
	PendingBalance decimal.Decimal `json:"pendingBalance"`
}

// WalletSet maps currency code to wallet balances. It is read-only to the
// dashboard; payouts and settlements change it server side.
type WalletSet map[string]Wallet

// Currencies returns the wallet currency codes in sorted order.
func (w WalletSet) Currencies() []string {
	out := make([]string, 0, len(w))
	for code := range w {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// SectionEvent describes navigation and cache changes observers may care about.
type SectionEvent struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id,omitempty"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// EventHook notifies transports (SSE/WebSocket) about section changes.
type EventHook interface {
	SectionChanged(ctx context.Context, event SectionEvent) error
}
