package publisher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"relay/internal/relay"
	"relay/internal/relay/metrics"
	"relay/internal/relay/tracing"
)

func testEvent() relay.Event {
	return relay.Event{
		Source:     relay.Source,
		DetailType: relay.DetailType,
		Detail:     []byte(`{"type":"standard"}`),
		BusName:    "relay-bus",
	}
}

func TestTracedBus_Publish(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	bus := NewTracedBus(&fakeBus{id: "evt-42"}, tracing.NewTracerFromProvider(tp, "test"))

	id, err := bus.Publish(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-42", id)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "bus.publish", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("relay.event_id", "evt-42"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("relay.bus", "relay-bus"))
}

func TestTracedBus_PublishError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	bus := NewTracedBus(&fakeBus{err: errors.New("denied")}, tracing.NewTracerFromProvider(tp, "test"))

	_, err := bus.Publish(context.Background(), testEvent())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("error", true))
}

func TestTracedBus_NoopTracer(t *testing.T) {
	bus := NewTracedBus(&fakeBus{id: "evt-1"}, tracing.NewNoopTracer())

	id, err := bus.Publish(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
}

func TestMetricsBus_Publish(t *testing.T) {
	registry := metrics.NewRegistry()
	bus := NewMetricsBus(&fakeBus{err: errors.New("boom")}, registry)

	_, err := bus.Publish(context.Background(), testEvent())
	require.Error(t, err)

	rr := httptest.NewRecorder()
	registry.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `relay_publish_total{bus="relay-bus",status="error"} 1`)
}
