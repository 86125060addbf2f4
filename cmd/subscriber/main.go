package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relay/internal/bus/kafka"
	"relay/internal/bus/nats"
	"relay/internal/bus/pubsub"
	"relay/internal/config"
	cb "relay/internal/couchbase"
	"relay/internal/relay"
	"relay/internal/relay/metrics"
	"relay/internal/relay/subscriber"
	"relay/internal/relay/tracing"
	cbstore "relay/internal/store/couchbase"
	"relay/internal/store/dynamodb"
	"relay/internal/store/postgres"
	"relay/internal/store/redis"
)

const component = "subscriber"

// storeHandle is a constructed store plus its lifecycle hooks.
type storeHandle struct {
	store relay.Store
	ready metrics.ReadyFunc
	close func()
}

func main() {
	cfg, err := config.LoadSubscriber()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("subscriber exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Subscriber, logger *zap.Logger) error {
	tracer, tracingCleanup, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	registry := metrics.NewRegistry()
	registry.SetSystemInfo(component, cfg.Tracing.ServiceVersion)

	h, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.close()

	store := subscriber.NewTracedStore(
		subscriber.NewMetricsStore(h.store, cfg.TableName, registry),
		cfg.StoreDriver, cfg.TableName, tracer,
	)

	s, err := subscriber.NewSubscriber(store, logger)
	if err != nil {
		return err
	}

	logger.Info("subscriber configured",
		zap.String("runtime", cfg.Runtime),
		zap.String("storeDriver", cfg.StoreDriver),
		zap.String("table", cfg.TableName),
	)

	if cfg.Runtime == config.RuntimeLambda {
		lambda.StartWithOptions(s.HandleLambda, lambda.WithContext(ctx))
		return nil
	}

	source, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, registry, logger, component, h.ready)
		g.Go(func() error {
			return metricsServer.Start(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("consuming events", zap.String("busDriver", cfg.BusDriver))
		return source.Receive(gctx, s.Deliver)
	})

	return g.Wait()
}

func newStore(ctx context.Context, cfg config.Subscriber) (storeHandle, error) {
	switch cfg.StoreDriver {
	case config.StoreDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return storeHandle{}, fmt.Errorf("%w: failed to load aws config: %w", relay.ErrConfiguration, err)
		}
		store, err := dynamodb.NewStoreFromConfig(awsCfg, cfg.TableName)
		if err != nil {
			return storeHandle{}, err
		}
		return storeHandle{store: store, close: func() {}}, nil

	case config.StoreCouchbase:
		cluster, bucket, err := cb.Connect(cfg.Couchbase)
		if err != nil {
			return storeHandle{}, fmt.Errorf("%w: %w", relay.ErrDependency, err)
		}
		records, err := cbstore.NewCollection(cluster, bucket, cfg.Couchbase.Scope, cfg.TableName)
		if err != nil {
			_ = cluster.Close(nil)
			return storeHandle{}, err
		}
		return storeHandle{
			store: cbstore.NewStore(records),
			ready: records.Ping,
			close: func() { _ = records.Close() },
		}, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return storeHandle{}, fmt.Errorf("%w: %w", relay.ErrDependency, err)
		}
		store, err := postgres.NewStore(pool, cfg.TableName)
		if err != nil {
			pool.Close()
			return storeHandle{}, err
		}
		if cfg.Postgres.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				pool.Close()
				return storeHandle{}, err
			}
		}
		return storeHandle{store: store, ready: pool.Ping, close: pool.Close}, nil

	case config.StoreRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return storeHandle{}, fmt.Errorf("%w: %w", relay.ErrDependency, err)
		}
		store, err := redis.NewStore(client, cfg.TableName)
		if err != nil {
			_ = client.Close()
			return storeHandle{}, err
		}
		return storeHandle{
			store: store,
			ready: func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: func() { _ = client.Close() },
		}, nil
	}

	return storeHandle{}, fmt.Errorf("%w: unknown store driver %q", relay.ErrConfiguration, cfg.StoreDriver)
}

func newSource(ctx context.Context, cfg config.Subscriber, logger *zap.Logger) (relay.Receiver, func(), error) {
	switch cfg.BusDriver {
	case config.BusNATS:
		conn, js, err := nats.Connect(cfg.NATS, "relay-subscriber", logger)
		if err != nil {
			return nil, nil, err
		}
		if err := nats.EnsureStream(ctx, js, cfg.NATS, cfg.BusName); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return nats.NewSource(js, cfg.NATS, cfg.BusName, logger), func() { _ = conn.Drain() }, nil

	case config.BusKafka:
		// Source.Receive closes the reader.
		return kafka.NewSource(kafka.NewReader(cfg.Kafka, cfg.BusName), logger), func() {}, nil

	case config.BusPubSub:
		client, err := pubsub.NewClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, nil, err
		}
		return pubsub.NewSource(client, cfg.PubSub, logger), func() { _ = client.Close() }, nil
	}

	return nil, nil, fmt.Errorf("%w: bus driver %q has no consumer", relay.ErrConfiguration, cfg.BusDriver)
}
