package subscriber

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"relay/internal/relay"
	"relay/internal/relay/tracing"
)

// TracedStore wraps a relay.Store with distributed tracing
// Layer order: TracedStore -> MetricsStore -> store driver
type TracedStore struct {
	store  relay.Store
	system string
	table  string
	tracer *tracing.Tracer
}

// NewTracedStore creates a new traced store. system names the backing
// database (dynamodb, couchbase, ...).
func NewTracedStore(store relay.Store, system, table string, tracer *tracing.Tracer) relay.Store {
	return &TracedStore{
		store:  store,
		system: system,
		table:  table,
		tracer: tracer,
	}
}

// Put implements relay.Store.Put with distributed tracing
func (s *TracedStore) Put(ctx context.Context, record relay.StoredRecord) error {
	ctx, span := s.tracer.StartSpan(ctx, "store.put", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(s.tracer.StoreAttributes(s.system, s.table, record.ID)...)

	err := s.store.Put(ctx, record)
	if err != nil {
		s.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(s.tracer.ErrorAttributes(err)...)

	return err
}
