package publisher

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"relay/internal/relay"
	"relay/internal/relay/tracing"
)

// TracedBus wraps a relay.Bus with distributed tracing
// Layer order: TracedBus -> MetricsBus -> bus driver
type TracedBus struct {
	bus    relay.Bus
	tracer *tracing.Tracer
}

// NewTracedBus creates a new traced bus
func NewTracedBus(bus relay.Bus, tracer *tracing.Tracer) relay.Bus {
	return &TracedBus{
		bus:    bus,
		tracer: tracer,
	}
}

// Publish implements relay.Bus.Publish with distributed tracing
func (b *TracedBus) Publish(ctx context.Context, event relay.Event) (string, error) {
	ctx, span := b.tracer.StartSpan(ctx, "bus.publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	span.SetAttributes(b.tracer.BusAttributes(event.BusName, event.Source, event.DetailType)...)

	id, err := b.bus.Publish(ctx, event)
	if err != nil {
		b.tracer.RecordError(ctx, err)
	} else {
		span.SetAttributes(attribute.String("relay.event_id", id))
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(b.tracer.ErrorAttributes(err)...)

	return id, err
}
