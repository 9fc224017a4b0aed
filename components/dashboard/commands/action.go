package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// RunActionInput wraps an action request. Outcome, when set, receives the
// result so transports can echo it.
type RunActionInput struct {
	Request dashboard.ActionRequest
	Outcome *dashboard.ActionOutcome `json:"-"`
}

type actionRunner interface {
	Run(ctx context.Context, req dashboard.ActionRequest) (dashboard.ActionOutcome, error)
}

// RunActionCommand runs one mutation action.
type RunActionCommand struct {
	runner    actionRunner
	telemetry Telemetry
}

// NewRunActionCommand creates the command.
func NewRunActionCommand(runner actionRunner, telemetry Telemetry) *RunActionCommand {
	return &RunActionCommand{runner: runner, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RunActionInput] = (*RunActionCommand)(nil)

// Execute delegates to the action runner.
func (c *RunActionCommand) Execute(ctx context.Context, msg RunActionInput) error {
	if c.runner == nil {
		return errors.New("action command requires runner")
	}
	if msg.Request.Action == "" {
		return errors.New("action command requires action name")
	}
	outcome, err := c.runner.Run(ctx, msg.Request)
	if msg.Outcome != nil {
		*msg.Outcome = outcome
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.action", map[string]any{
		"action":     outcome.Action,
		"target":     outcome.Target,
		"request_id": outcome.RequestID,
	})
	return nil
}
