package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/pkg/config"
	"github.com/codemaster-stack/supamart-dashboard/pkg/logging"
	"github.com/codemaster-stack/supamart-dashboard/pkg/metrics"
	"github.com/codemaster-stack/supamart-dashboard/pkg/storefront"
)

// runtime carries the resolved configuration and collaborators for one
// invocation.
type runtime struct {
	cfg       config.Config
	logger    *zap.Logger
	telemetry dashboard.Telemetry
	gatherer  *prometheus.Registry
	client    storefront.Client
	sessions  dashboard.SessionStore
	persisted *dashboard.FileSessionStore
	role      dashboard.Role
	out       io.Writer
}

func newRuntime(g *Globals) (*runtime, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	role, err := parseRoleFlag(g.Role)
	if err != nil {
		return nil, err
	}

	var client storefront.Client
	if g.Demo {
		client = storefront.NewMockClient(demoData())
	} else {
		client, err = storefront.NewHTTPClient(storefront.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
		if err != nil {
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	counters, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	persisted := dashboard.NewFileSessionStore(cfg.Session.Path)
	tab := dashboard.NewInMemorySessionStore()
	if g.Token != "" {
		if role == "" {
			return nil, fmt.Errorf("dashctl: --token requires --role")
		}
		if err := tab.Save(context.Background(), dashboard.Session{Token: g.Token, Role: role, Currency: strings.ToUpper(g.Currency)}); err != nil {
			return nil, err
		}
	} else if g.Demo {
		demoRole := role
		if demoRole == "" {
			demoRole = dashboard.RoleAdmin
		}
		_ = tab.Save(context.Background(), dashboard.Session{Token: "demo", Role: demoRole, Currency: strings.ToUpper(g.Currency)})
	}

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		telemetry: dashboard.MultiTelemetry(logging.NewTelemetry(logger), counters),
		gatherer:  registry,
		client:    client,
		sessions:  dashboard.NewLayeredSessionStore(tab, persisted),
		persisted: persisted,
		role:      role,
		out:       os.Stdout,
	}, nil
}

func parseRoleFlag(raw string) (dashboard.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	role, ok := dashboard.ParseRole(raw)
	if !ok {
		return "", fmt.Errorf("dashctl: unknown role %q", raw)
	}
	return role, nil
}

// controllerOptions wires the runtime into dashboard options. view, prompter
// and redirector vary by command.
func (r *runtime) controllerOptions(view dashboard.View, prompter dashboard.Prompter, redirector dashboard.Redirector) dashboard.Options {
	return dashboard.Options{
		Role:              r.role,
		Sessions:          r.sessions,
		Loaders:           storefront.Loaders(r.client, storefront.LoaderOptions{}),
		Manifest:          r.cfg.Dashboard.Manifest,
		Converter:         r.client,
		Mutator:           r.client,
		View:              view,
		Renderer:          dashboard.TableRenderer{},
		Prompter:          prompter,
		Redirector:        redirector,
		LoginURL:          r.cfg.Dashboard.LoginURL,
		RedirectDelay:     r.cfg.Dashboard.RedirectDelay,
		CacheMaxAge:       r.cfg.Dashboard.CacheMaxAge,
		LoadTimeout:       r.cfg.API.Timeout,
		ConversionTimeout: r.cfg.API.ConversionTimeout,
		Telemetry:         r.telemetry,
		Logger:            r.logger,
	}
}

// bootTerminal boots a controller that renders to the terminal.
func (r *runtime) bootTerminal(ctx context.Context, g *Globals, marked string) (*dashboard.Controller, error) {
	var prompter dashboard.Prompter = newTerminalPrompter(os.Stdin, r.out)
	if g.Yes {
		prompter = dashboard.AutoConfirm
	}
	ctrl := dashboard.NewController(r.controllerOptions(newTerminalView(r.out), prompter, terminalRedirector{out: r.out}))
	if err := ctrl.Boot(ctx, marked); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}
