// Package observability provides metric instruments and tracing for the
// dispatch engine.
package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for the dispatch engine, backed by any
// go-utils MetricFactory.
type Metrics struct {
	InvocationsTotal  gu.Counter
	InvocationLatency gu.Histogram
	ScopeDenials      gu.Counter
	TelemetryDropped  gu.Counter
}

// NewMetrics creates dispatch metric instruments using the supplied factory.
// Pass metrics.NewMetricsCollector() for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		InvocationsTotal:  factory.Counter("dispatch_invocations_total"),
		InvocationLatency: factory.Histogram("dispatch_invocation_latency_seconds"),
		ScopeDenials:      factory.Counter("dispatch_scope_denials_total"),
		TelemetryDropped:  factory.Counter("dispatch_telemetry_dropped_total"),
	}
}

// RecordInvocation records a completed handler invocation with the given
// outcome and latency.
func (m *Metrics) RecordInvocation(status string, latencySeconds float64) {
	m.InvocationsTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.InvocationLatency.Observe(latencySeconds)
}
