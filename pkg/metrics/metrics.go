package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry turns dashboard telemetry events into Prometheus counters.
type Telemetry struct {
	events      *prometheus.CounterVec
	activations *prometheus.CounterVec
	actions     *prometheus.CounterVec
	pairs       *prometheus.CounterVec
}

// New registers the dashboard collectors on reg.
func New(reg prometheus.Registerer) (*Telemetry, error) {
	t := &Telemetry{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "events_total",
			Help:      "Telemetry events recorded by the dashboard.",
		}, []string{"event"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "section_activations_total",
			Help:      "Section activations by section and resulting data state.",
		}, []string{"section", "state"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "actions_total",
			Help:      "Mutation actions by name and outcome.",
		}, []string{"action", "outcome"}),
		pairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "price_pairs_total",
			Help:      "Unique price pairs sent for conversion, and those that fell back.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{t.events, t.activations, t.actions, t.pairs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return t, nil
}

// Record implements dashboard.Telemetry.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.events.WithLabelValues(event).Inc()
	switch event {
	case "dashboard.section.activate":
		t.activations.WithLabelValues(str(payload["section"]), str(payload["state"])).Inc()
	case "dashboard.action.run":
		t.actions.WithLabelValues(str(payload["action"]), "ok").Inc()
	case "dashboard.action.failed":
		t.actions.WithLabelValues(str(payload["action"]), "failed").Inc()
	case "dashboard.prices.annotate":
		if n, ok := payload["requested"].(int); ok && n > 0 {
			t.pairs.WithLabelValues("requested").Add(float64(n))
		}
	case "dashboard.prices.fallback":
		if n, ok := payload["pairs"].(int); ok && n > 0 {
			t.pairs.WithLabelValues("fallback").Add(float64(n))
		}
	}
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
