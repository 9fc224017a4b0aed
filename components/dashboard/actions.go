package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActionScope says which control triggers an action.
type ActionScope string

const (
	ScopeRow  ActionScope = "row"
	ScopeForm ActionScope = "form"
)

// ActionDefinition describes one mutation the dashboard can issue.
type ActionDefinition struct {
	Name         string         `json:"name" yaml:"name"`
	Title        string         `json:"title" yaml:"title"`
	RequiredRole Role           `json:"required_role,omitempty" yaml:"required_role,omitempty"`
	Resource     string         `json:"resource" yaml:"resource"`
	Method       string         `json:"method" yaml:"method"`
	Path         string         `json:"path" yaml:"path"`
	NeedsTarget  bool           `json:"needs_target,omitempty" yaml:"needs_target,omitempty"`
	Scope        ActionScope    `json:"scope" yaml:"scope"`
	Confirm      string         `json:"confirm,omitempty" yaml:"confirm,omitempty"`
	Schema       map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Endpoint expands the {id} placeholder with target.
func (d ActionDefinition) Endpoint(target string) string {
	return strings.ReplaceAll(d.Path, "{id}", url.PathEscape(target))
}

// Mutation is the request an action hands to the Mutator.
type Mutation struct {
	Method    string
	Path      string
	Body      map[string]any
	RequestID string
}

// MutationResult is the server confirmation of a mutation.
type MutationResult struct {
	Message string
	Data    Record
}

// Mutator sends mutations to the network API. Failures carrying a server
// message should be *RemoteError.
type Mutator interface {
	Mutate(ctx context.Context, token string, m Mutation) (MutationResult, error)
}

// ActionRequest triggers one action.
type ActionRequest struct {
	Action  string         `json:"action"`
	Target  string         `json:"target,omitempty"`
	Control string         `json:"control,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ActionOutcome reports a completed action.
type ActionOutcome struct {
	Action      string   `json:"action"`
	Target      string   `json:"target,omitempty"`
	RequestID   string   `json:"request_id"`
	Message     string   `json:"message,omitempty"`
	Data        Record   `json:"data,omitempty"`
	Invalidated []string `json:"invalidated,omitempty"`
	Reloaded    bool     `json:"reloaded"`
}

// ActionsOptions configures Actions.
type ActionsOptions struct {
	Guard     *Guard
	Validator ActionValidator
	Prompter  Prompter
	View      View
	Telemetry Telemetry
	Logger    *zap.Logger
}

// Actions runs mutations with uniform semantics: role check, pre-network
// validation, confirmation for destructive or financial actions, a busy state
// on the triggering control, then invalidate-then-reload on success.
type Actions struct {
	mu      sync.RWMutex
	defs    map[string]ActionDefinition
	order   []string
	mutator Mutator
	loader  *SectionLoader
	nav     *Navigator
	opts    ActionsOptions
}

// NewActions builds the handler set with the default action definitions.
func NewActions(mutator Mutator, loader *SectionLoader, nav *Navigator, opts ActionsOptions) *Actions {
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Prompter == nil {
		opts.Prompter = declinePrompter{}
	}
	if opts.View == nil {
		opts.View = noopView{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	a := &Actions{
		defs:    map[string]ActionDefinition{},
		mutator: mutator,
		loader:  loader,
		nav:     nav,
		opts:    opts,
	}
	for _, def := range DefaultActions() {
		_ = a.Register(def)
	}
	return a
}

// Register adds or replaces an action definition.
func (a *Actions) Register(def ActionDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("dashboard: action name is required")
	}
	if def.Path == "" || def.Method == "" {
		return fmt.Errorf("dashboard: action %s needs a method and path", def.Name)
	}
	if def.RequiredRole != "" && !def.RequiredRole.Valid() {
		return fmt.Errorf("dashboard: action %s has unknown required role %q", def.Name, def.RequiredRole)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.defs[def.Name]; !exists {
		a.order = append(a.order, def.Name)
	}
	a.defs[def.Name] = def
	return nil
}

// Definition fetches an action by name.
func (a *Actions) Definition(name string) (ActionDefinition, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	def, ok := a.defs[name]
	return def, ok
}

// Available lists the actions role may run, in registration order.
func (a *Actions) Available(role Role) []ActionDefinition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []ActionDefinition
	for _, name := range a.order {
		def := a.defs[name]
		if role.Satisfies(def.RequiredRole) {
			out = append(out, def)
		}
	}
	return out
}

// Run executes one action. Failures leave cached state untouched; the server
// reason is shown verbatim and returned.
func (a *Actions) Run(ctx context.Context, req ActionRequest) (ActionOutcome, error) {
	def, ok := a.Definition(req.Action)
	if !ok {
		return ActionOutcome{}, fmt.Errorf("%w: %s", ErrActionNotFound, req.Action)
	}
	outcome := ActionOutcome{Action: def.Name, Target: req.Target}

	session, err := a.authorize(ctx, def)
	if err != nil {
		a.opts.Telemetry.Record(ctx, "dashboard.session.denied", map[string]any{
			"action": def.Name,
			"error":  err.Error(),
		})
		return outcome, err
	}

	if def.NeedsTarget && strings.TrimSpace(req.Target) == "" {
		verr := &ValidationError{Action: def.Name, Fields: map[string]string{"id": "a target record is required"}}
		a.opts.View.ShowMessage(MessageError, verr.Error())
		return outcome, verr
	}
	if err := a.opts.Validator.Validate(def, req.Payload); err != nil {
		a.opts.View.ShowMessage(MessageError, err.Error())
		return outcome, err
	}

	if def.Confirm != "" {
		confirmed, err := a.opts.Prompter.Confirm(ctx, def.Confirm)
		if err != nil {
			return outcome, err
		}
		if !confirmed {
			return outcome, ErrActionCancelled
		}
	}

	control := req.Control
	if control == "" {
		control = def.Name
		if req.Target != "" {
			control += ":" + req.Target
		}
	}
	a.opts.View.ShowBusy(control, true)
	defer a.opts.View.ShowBusy(control, false)

	outcome.RequestID = uuid.NewString()
	started := time.Now()
	result, err := a.mutator.Mutate(ctx, session.Token, Mutation{
		Method:    def.Method,
		Path:      def.Endpoint(req.Target),
		Body:      req.Payload,
		RequestID: outcome.RequestID,
	})
	if err != nil {
		a.opts.Logger.Warn("action failed",
			zap.String("action", def.Name),
			zap.String("request_id", outcome.RequestID),
			zap.Error(err),
		)
		a.opts.Telemetry.Record(ctx, "dashboard.action.failed", map[string]any{
			"action":     def.Name,
			"request_id": outcome.RequestID,
			"error":      err.Error(),
		})
		a.opts.View.ShowMessage(MessageError, failureText(err))
		return outcome, err
	}
	outcome.Message = result.Message
	outcome.Data = result.Data

	if a.loader != nil {
		outcome.Invalidated = a.loader.InvalidateResource(ctx, def.Resource)
	}
	if active := a.activeSection(); active != "" && slices.Contains(outcome.Invalidated, active) {
		switch err := a.nav.Reload(ctx); {
		case err == nil:
			outcome.Reloaded = true
		case !errors.Is(err, ErrNavigationClosed):
			return outcome, err
		}
	}
	if result.Message != "" {
		a.opts.View.ShowMessage(MessageSuccess, result.Message)
	}
	a.opts.Telemetry.Record(ctx, "dashboard.action.run", map[string]any{
		"action":      def.Name,
		"target":      req.Target,
		"request_id":  outcome.RequestID,
		"invalidated": outcome.Invalidated,
		"elapsed":     time.Since(started).String(),
	})
	return outcome, nil
}

func (a *Actions) authorize(ctx context.Context, def ActionDefinition) (Session, error) {
	if a.opts.Guard != nil {
		return a.opts.Guard.CheckAccess(ctx, def.RequiredRole)
	}
	if a.nav == nil {
		return Session{}, &AccessError{Reason: DenyNoCredential, Required: def.RequiredRole}
	}
	session := a.nav.Session()
	if !session.Role.Satisfies(def.RequiredRole) {
		return Session{}, &AccessError{Reason: DenyRoleMismatch, Required: def.RequiredRole, Actual: session.Role}
	}
	return session, nil
}

// failureText prefers the server-provided reason.
func failureText(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
}

func (a *Actions) activeSection() string {
	if a.nav == nil {
		return ""
	}
	return a.nav.State().ActiveSection
}
