// Package couchbase stores relay records as Couchbase documents keyed by
// relay.RecordKey.
package couchbase

import (
	"context"
	"fmt"

	"github.com/couchbase/gocb/v2"

	cb "relay/internal/couchbase"
	"relay/internal/relay"
)

// Upserter is the subset of cb.Collection used by Store.
type Upserter interface {
	Upsert(ctx context.Context, key string, value relay.StoredRecord, opts *gocb.UpsertOptions) error
}

// Store persists records into a collection.
type Store struct {
	records Upserter
}

// NewStore creates a store over records.
func NewStore(records Upserter) *Store {
	return &Store{records: records}
}

// NewCollection opens the named records collection in the configured scope.
func NewCollection(cluster *gocb.Cluster, bucket *gocb.Bucket, scope, name string) (*cb.Collection[relay.StoredRecord], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", relay.ErrConfiguration)
	}
	return cb.NewCollection[relay.StoredRecord](cluster, bucket.Scope(scope).Collection(name))
}

// Put implements relay.Store.
func (s *Store) Put(ctx context.Context, record relay.StoredRecord) error {
	if err := s.records.Upsert(ctx, relay.RecordKey(record.ID), record, nil); err != nil {
		return fmt.Errorf("%w: %w", relay.ErrDependency, err)
	}
	return nil
}
