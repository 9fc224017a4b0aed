package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/pkg/storefront"
)

type loginCmd struct {
	Location string `help:"Viewer location recorded with the session."`
}

// Run persists the global --token/--role/--currency as the stored session.
func (cmd *loginCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	if g.Token == "" || rt.role == "" {
		return errors.New("dashctl: login requires --token and --role")
	}
	session := dashboard.Session{
		Token:    g.Token,
		Role:     rt.role,
		Currency: strings.ToUpper(g.Currency),
		Location: cmd.Location,
	}
	if err := rt.persisted.Save(ctx, session); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Session saved for %s to %s\n", session.Role, rt.cfg.Session.Path)
	return nil
}

type sectionsCmd struct{}

func (cmd *sectionsCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	role := rt.role
	if role == "" {
		session, ok, err := rt.sessions.Load(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("dashctl: no session; pass --role or log in first")
		}
		role = session.Role
	}
	registry, err := dashboard.NewRoleRegistry(role, storefront.Loaders(rt.client, storefront.LoaderOptions{}))
	if err != nil {
		return err
	}
	if rt.cfg.Dashboard.Manifest != "" {
		if _, err := registry.LoadManifestFile(rt.cfg.Dashboard.Manifest); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(rt.out, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", dashboard.DefaultHeaderTitle(role))
	for _, item := range dashboard.MenuFor(registry, role) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.Position, item.ID, item.Label, item.Route)
	}
	return tw.Flush()
}

type openCmd struct {
	Section string `arg:"" optional:"" help:"Section id to open (defaults to the first section)."`
	Actions bool   `help:"Also list the actions available to the session."`
}

func (cmd *openCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	ctrl, err := rt.bootTerminal(ctx, g, cmd.Section)
	if err != nil {
		return err
	}
	ctrl.AwaitPrices()
	if cmd.Section != "" && ctrl.State().ActiveSection != dashboard.NormalizeSectionID(cmd.Section) {
		fmt.Fprintf(rt.out, "Section %q is not available; showing %s\n", cmd.Section, ctrl.State().ActiveSection)
	}
	if cmd.Actions {
		for _, def := range ctrl.Actions() {
			fmt.Fprintf(rt.out, "  %s\t%s %s\n", def.Name, def.Method, def.Path)
		}
	}
	return nil
}

type actionCmd struct {
	Name    string `arg:"" help:"Action name (e.g. approve-seller, request-payout)."`
	Target  string `help:"Record id the action applies to."`
	Payload string `help:"JSON object with the action input."`
	Section string `help:"Section to open before running the action."`
}

func (cmd *actionCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	var payload map[string]any
	if cmd.Payload != "" {
		if err := json.Unmarshal([]byte(cmd.Payload), &payload); err != nil {
			return fmt.Errorf("dashctl: parse --payload: %w", err)
		}
	}
	ctrl, err := rt.bootTerminal(ctx, g, cmd.Section)
	if err != nil {
		return err
	}
	outcome, err := ctrl.Run(ctx, dashboard.ActionRequest{Action: cmd.Name, Target: cmd.Target, Payload: payload})
	if err != nil {
		var validation *dashboard.ValidationError
		if errors.As(err, &validation) {
			for field, msg := range validation.Fields {
				fmt.Fprintf(rt.out, "  %s: %s\n", field, msg)
			}
		}
		return err
	}
	ctrl.AwaitPrices()
	fmt.Fprintf(rt.out, "request %s", outcome.RequestID)
	if len(outcome.Invalidated) > 0 {
		fmt.Fprintf(rt.out, ", refreshed %s", strings.Join(outcome.Invalidated, ", "))
	}
	fmt.Fprintln(rt.out)
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := newRuntime(g)
	if err != nil {
		return err
	}
	defer rt.close()
	ctrl, err := rt.bootTerminal(ctx, g, "")
	if err != nil {
		if errors.Is(err, dashboard.ErrUnauthorized) {
			return rt.sessions.Clear(ctx)
		}
		return err
	}
	return ctrl.Logout(ctx)
}
