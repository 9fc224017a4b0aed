package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ReloadSectionInput refetches the active section.
type ReloadSectionInput struct{}

type sectionReloader interface {
	Reload(ctx context.Context) error
}

// ReloadSectionCommand is the retry entry point for an errored section.
type ReloadSectionCommand struct {
	nav       sectionReloader
	telemetry Telemetry
}

// NewReloadSectionCommand creates the command.
func NewReloadSectionCommand(nav sectionReloader, telemetry Telemetry) *ReloadSectionCommand {
	return &ReloadSectionCommand{nav: nav, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReloadSectionInput] = (*ReloadSectionCommand)(nil)

// Execute reloads the active section.
func (c *ReloadSectionCommand) Execute(ctx context.Context, _ ReloadSectionInput) error {
	if c.nav == nil {
		return errors.New("reload command requires navigator")
	}
	if err := c.nav.Reload(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.reload", nil)
	return nil
}

// ToggleSidebarInput flips the sidebar. Open receives the new state.
type ToggleSidebarInput struct {
	Open *bool `json:"-"`
}

type sidebarToggler interface {
	ToggleSidebar() (bool, error)
}

// ToggleSidebarCommand flips the sidebar without touching navigation.
type ToggleSidebarCommand struct {
	nav sidebarToggler
}

// NewToggleSidebarCommand creates the command.
func NewToggleSidebarCommand(nav sidebarToggler) *ToggleSidebarCommand {
	return &ToggleSidebarCommand{nav: nav}
}

var _ gocommand.Commander[ToggleSidebarInput] = (*ToggleSidebarCommand)(nil)

// Execute toggles the sidebar.
func (c *ToggleSidebarCommand) Execute(_ context.Context, msg ToggleSidebarInput) error {
	if c.nav == nil {
		return errors.New("sidebar command requires navigator")
	}
	open, err := c.nav.ToggleSidebar()
	if err != nil {
		return err
	}
	if msg.Open != nil {
		*msg.Open = open
	}
	return nil
}

// LogoutInput starts the logout flow.
type LogoutInput struct{}

type sessionEnder interface {
	Logout(ctx context.Context) error
}

// LogoutCommand confirms with the viewer, clears the session and redirects.
type LogoutCommand struct {
	nav       sessionEnder
	telemetry Telemetry
}

// NewLogoutCommand creates the command.
func NewLogoutCommand(nav sessionEnder, telemetry Telemetry) *LogoutCommand {
	return &LogoutCommand{nav: nav, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute runs the logout flow.
func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutInput) error {
	if c.nav == nil {
		return errors.New("logout command requires navigator")
	}
	if err := c.nav.Logout(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.logout", nil)
	return nil
}
