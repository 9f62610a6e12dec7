// Package observability holds the OpenTelemetry instruments for the
// workflow engine.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the engine's counters. All methods are safe on a nil
// receiver so tests can run without a meter provider.
type Metrics struct {
	chainsInitiated metric.Int64Counter
	transitions     metric.Int64Counter
	gateRejections  metric.Int64Counter
}

// NewMetrics registers the engine counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("portfolio-cms/workflow")

	chains, err := meter.Int64Counter("workflow_chains_initiated_total",
		metric.WithDescription("Number of workflow chains created"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("workflow_transitions_total",
		metric.WithDescription("Number of workflow state transitions"))
	if err != nil {
		return nil, err
	}
	rejections, err := meter.Int64Counter("workflow_gate_rejections_total",
		metric.WithDescription("Advancement attempts rejected by the checklist gate"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		chainsInitiated: chains,
		transitions:     transitions,
		gateRejections:  rejections,
	}, nil
}

// ChainInitiated records a chain creation for the given kind.
func (m *Metrics) ChainInitiated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.chainsInitiated.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Transition records a state transition by name.
func (m *Metrics) Transition(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("transition", name)))
}

// GateRejected records an advancement blocked by an incomplete checklist.
func (m *Metrics) GateRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.gateRejections.Add(ctx, 1)
}
