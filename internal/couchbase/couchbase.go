// Package couchbase wraps the Couchbase Go SDK with a typed document
// collection and a connection helper.
package couchbase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
)

// Config holds cluster connection settings.
type Config struct {
	ConnectionString string        `env:"CONNECTION_STRING" envDefault:"couchbase://localhost"`
	Username         string        `env:"USERNAME" envDefault:"Administrator"`
	Password         string        `env:"PASSWORD" envDefault:"password"`
	Bucket           string        `env:"BUCKET" envDefault:"relay"`
	Scope            string        `env:"SCOPE" envDefault:"_default"`
	ReadyTimeout     time.Duration `env:"READY_TIMEOUT" envDefault:"5s"`
}

// Connect opens the cluster and waits for the bucket to become ready.
func Connect(cfg Config) (*gocb.Cluster, *gocb.Bucket, error) {
	cluster, err := gocb.Connect(cfg.ConnectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: 10 * time.Second,
			KVTimeout:      5 * time.Second,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)
	if err := bucket.WaitUntilReady(cfg.ReadyTimeout, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, nil, fmt.Errorf("bucket %s not ready: %w", cfg.Bucket, err)
	}

	return cluster, bucket, nil
}

// Collection is a typed view over one Couchbase collection.
type Collection[T any] struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
}

// NewCollection creates a typed collection. cluster and collection must not be nil.
func NewCollection[T any](cluster *gocb.Cluster, collection *gocb.Collection) (*Collection[T], error) {
	if cluster == nil || collection == nil {
		return nil, errors.New("invalid Couchbase parameters: cluster and collection must not be nil")
	}

	return &Collection[T]{
		cluster:    cluster,
		collection: collection,
	}, nil
}

// Upsert writes value under key, creating or overwriting the document.
func (c *Collection[T]) Upsert(ctx context.Context, key string, value T, opts *gocb.UpsertOptions) error {
	if opts == nil {
		opts = new(gocb.UpsertOptions)
	}
	opts.Context = ctx

	if _, err := c.collection.Upsert(key, value, opts); err != nil {
		return fmt.Errorf("failed to upsert document with key %s: %w", key, err)
	}

	return nil
}

// Ping checks that the key-value service is reachable.
func (c *Collection[T]) Ping(ctx context.Context) error {
	_, err := c.cluster.Ping(&gocb.PingOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
		Context:      ctx,
	})
	if err != nil {
		return fmt.Errorf("couchbase ping failed: %w", err)
	}
	return nil
}

// Close closes the cluster connection.
func (c *Collection[T]) Close() error {
	return c.cluster.Close(nil)
}
