package subscriber

import (
	"context"
	"time"

	"relay/internal/relay"
	"relay/internal/relay/metrics"
)

// MetricsStore wraps a relay.Store with metrics collection
type MetricsStore struct {
	store    relay.Store
	table    string
	registry *metrics.Registry
}

// NewMetricsStore creates a new instrumented store
func NewMetricsStore(store relay.Store, table string, registry *metrics.Registry) relay.Store {
	return &MetricsStore{
		store:    store,
		table:    table,
		registry: registry,
	}
}

// Put implements relay.Store.Put with metrics collection
func (s *MetricsStore) Put(ctx context.Context, record relay.StoredRecord) error {
	start := time.Now()
	err := s.store.Put(ctx, record)
	s.registry.RecordPersist(s.table, time.Since(start), err)

	return err
}
