// Package redis stores relay records as JSON strings in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"relay/internal/relay"
)

// Config holds the Redis connection URL.
type Config struct {
	URL string `env:"URL" envDefault:"redis://localhost:6379/0"`
}

// NewClient parses cfg.URL, connects and pings the server.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

// Store writes each record under "<namespace>:record::<id>" with no expiry.
type Store struct {
	client    redis.Cmdable
	namespace string
}

// NewStore creates a store whose keys are prefixed with namespace.
func NewStore(client redis.Cmdable, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: key namespace is required", relay.ErrConfiguration)
	}
	return &Store{client: client, namespace: namespace}, nil
}

// Key returns the Redis key for a record id.
func (s *Store) Key(id string) string {
	return s.namespace + ":" + relay.RecordKey(id)
}

// Put implements relay.Store.
func (s *Store) Put(ctx context.Context, record relay.StoredRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
	}

	if err := s.client.Set(ctx, s.Key(record.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", relay.ErrDependency, err)
	}

	return nil
}
