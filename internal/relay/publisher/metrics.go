package publisher

import (
	"context"
	"time"

	"relay/internal/relay"
	"relay/internal/relay/metrics"
)

// MetricsBus wraps a relay.Bus with metrics collection
type MetricsBus struct {
	bus      relay.Bus
	registry *metrics.Registry
}

// NewMetricsBus creates a new instrumented bus
func NewMetricsBus(bus relay.Bus, registry *metrics.Registry) relay.Bus {
	return &MetricsBus{
		bus:      bus,
		registry: registry,
	}
}

// Publish implements relay.Bus.Publish with metrics collection
func (b *MetricsBus) Publish(ctx context.Context, event relay.Event) (string, error) {
	start := time.Now()
	id, err := b.bus.Publish(ctx, event)
	b.registry.RecordPublish(event.BusName, time.Since(start), err)

	return id, err
}
