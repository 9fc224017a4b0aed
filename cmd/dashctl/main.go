package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Login    loginCmd    `cmd:"" help:"Persist a session credential for later commands."`
	Sections sectionsCmd `cmd:"" help:"List the sidebar sections visible to a role."`
	Open     openCmd     `cmd:"" help:"Boot the dashboard and print a section."`
	Action   actionCmd   `cmd:"" help:"Run a mutation action against the storefront API."`
	Logout   logoutCmd   `cmd:"" help:"Clear the stored session."`
	Serve    serveCmd    `cmd:"" help:"Serve the dashboard JSON API and event stream."`
	Manifest manifestCmd `cmd:"" help:"Inspect or extend a section manifest."`
}

// Globals are shared by every command.
type Globals struct {
	Config   string `type:"path" env:"DASHBOARD_CONFIG" help:"Path to a YAML config file."`
	Role     string `help:"Dashboard role to open (admin, seller, user). Defaults to the session role."`
	Token    string `env:"DASHBOARD_TOKEN" help:"Session credential for this invocation only (requires --role)."`
	Currency string `help:"Preferred display currency for buyer sessions."`
	Demo     bool   `help:"Use built-in fixtures instead of the storefront API."`
	Yes      bool   `short:"y" help:"Confirm destructive and financial actions without prompting."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("dashctl"),
		kong.Description("Role-aware storefront dashboard from the terminal."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&c.Globals)
	ctx.FatalIfErrorf(err)
}
