package couchbase

import (
	"context"
	"errors"
	"testing"

	"github.com/couchbase/gocb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/relay"
)

type fakeCollection struct {
	docs map[string]relay.StoredRecord
	err  error
}

func (f *fakeCollection) Upsert(_ context.Context, key string, value relay.StoredRecord, _ *gocb.UpsertOptions) error {
	if f.err != nil {
		return f.err
	}
	f.docs[key] = value
	return nil
}

func TestStore_Put(t *testing.T) {
	fc := &fakeCollection{docs: map[string]relay.StoredRecord{}}
	s := NewStore(fc)

	rec := relay.StoredRecord{ID: "abc", Timestamp: "2024-01-01T00:00:00Z", Message: "hi"}
	require.NoError(t, s.Put(context.Background(), rec))

	assert.Equal(t, rec, fc.docs["record::abc"])
}

func TestStore_Put_Error(t *testing.T) {
	fc := &fakeCollection{err: errors.New("timeout")}
	s := NewStore(fc)

	err := s.Put(context.Background(), relay.StoredRecord{ID: "abc"})
	assert.ErrorIs(t, err, relay.ErrDependency)
	assert.Contains(t, err.Error(), "timeout")
}

func TestNewCollection_RequiresName(t *testing.T) {
	_, err := NewCollection(nil, nil, "_default", "")
	assert.ErrorIs(t, err, relay.ErrConfiguration)
}
