package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/kiket-dev/dispatch"

// Tracer provides OpenTelemetry tracing for handler invocations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new dispatch tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartInvocationSpan starts a new span for a handler invocation.
func (t *Tracer) StartInvocationSpan(ctx context.Context, invocationID, event, version string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "dispatch.invocation",
		trace.WithAttributes(
			attribute.String("dispatch.invocation_id", invocationID),
			attribute.String("dispatch.event", event),
			attribute.String("dispatch.version", version),
		),
	)
}

// EndInvocationSpan ends an invocation span with result attributes.
func (t *Tracer) EndInvocationSpan(span trace.Span, status string, durationMS float64, errDetail string) {
	span.SetAttributes(
		attribute.String("dispatch.status", status),
		attribute.Float64("dispatch.duration_ms", durationMS),
	)
	if errDetail != "" {
		span.SetStatus(codes.Error, errDetail)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
