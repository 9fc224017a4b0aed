package commands

import (
	"context"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// Telemetry is the dashboard sink commands report command outcomes to.
type Telemetry = dashboard.Telemetry

var discard = dashboard.TelemetryFunc(func(context.Context, string, map[string]any) {})

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discard
	}
	return t
}
