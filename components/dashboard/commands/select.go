package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// SelectSectionInput names the section to activate. Anchor forms are accepted.
type SelectSectionInput struct {
	SectionID string `json:"section_id"`
}

type sectionSelector interface {
	Select(ctx context.Context, id string) error
	State() dashboard.NavigationState
}

// SelectSectionCommand drives navigation from any transport.
type SelectSectionCommand struct {
	nav       sectionSelector
	telemetry Telemetry
}

// NewSelectSectionCommand creates the command.
func NewSelectSectionCommand(nav sectionSelector, telemetry Telemetry) *SelectSectionCommand {
	return &SelectSectionCommand{nav: nav, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectSectionInput] = (*SelectSectionCommand)(nil)

// Execute activates the section. Unknown ids are ignored by the navigator.
func (c *SelectSectionCommand) Execute(ctx context.Context, msg SelectSectionInput) error {
	if c.nav == nil {
		return errors.New("select command requires navigator")
	}
	id := strings.TrimSpace(msg.SectionID)
	if id == "" {
		return errors.New("select command requires section id")
	}
	if err := c.nav.Select(ctx, id); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.select", map[string]any{
		"requested": id,
		"active":    c.nav.State().ActiveSection,
	})
	return nil
}
