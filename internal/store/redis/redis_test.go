package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/relay"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	s, err := NewStore(client, "records")
	require.NoError(t, err)
	return s, mr
}

func TestStore_Put(t *testing.T) {
	s, mr := newTestStore(t)

	rec := relay.StoredRecord{
		ID:           "id-1",
		Timestamp:    "2024-01-01T00:00:00Z",
		Message:      "hello",
		EventDetails: map[string]any{"type": "standard"},
	}
	require.NoError(t, s.Put(context.Background(), rec))

	raw, err := mr.Get("records:record::id-1")
	require.NoError(t, err)

	var got relay.StoredRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec, got)
	assert.Zero(t, mr.TTL("records:record::id-1"))
}

func TestStore_Put_ServerDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	err := s.Put(context.Background(), relay.StoredRecord{ID: "id-1"})
	assert.ErrorIs(t, err, relay.ErrDependency)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not-a-url://"})
	assert.Error(t, err)
}

func TestNewStore_RequiresNamespace(t *testing.T) {
	_, err := NewStore(redis.NewClient(&redis.Options{}), "")
	assert.ErrorIs(t, err, relay.ErrConfiguration)
}
