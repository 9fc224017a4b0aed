package dashboard

import "context"

// Telemetry records navigation, cache and action events.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// TelemetryFunc adapts a function into a Telemetry sink.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record implements Telemetry.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// MultiTelemetry fans each event out to every non-nil sink in order.
func MultiTelemetry(sinks ...Telemetry) Telemetry {
	out := make(multiTelemetry, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

type multiTelemetry []Telemetry

func (m multiTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	for _, sink := range m {
		sink.Record(ctx, event, payload)
	}
}
