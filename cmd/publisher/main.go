package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relay/internal/bus/eventbridge"
	"relay/internal/bus/kafka"
	"relay/internal/bus/nats"
	"relay/internal/bus/pubsub"
	"relay/internal/config"
	"relay/internal/relay"
	"relay/internal/relay/metrics"
	"relay/internal/relay/publisher"
	"relay/internal/relay/tracing"
)

const component = "publisher"

func main() {
	cfg, err := config.LoadPublisher()
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
		logger.Error("publisher exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Publisher, logger *zap.Logger) error {
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

	baseBus, closeBus, err := newBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBus()

	bus := publisher.NewTracedBus(publisher.NewMetricsBus(baseBus, registry), tracer)

	p, err := publisher.NewPublisher(bus, cfg.BusName, logger)
	if err != nil {
		return err
	}

	logger.Info("publisher configured",
		zap.String("runtime", cfg.Runtime),
		zap.String("busDriver", cfg.BusDriver),
		zap.String("bus", cfg.BusName),
	)

	if cfg.Runtime == config.RuntimeLambda {
		lambda.StartWithOptions(p.HandleLambda, lambda.WithContext(ctx))
		return nil
	}

	return serve(ctx, cfg, p, registry, logger)
}

func serve(ctx context.Context, cfg config.Publisher, p *publisher.Publisher, registry *metrics.Registry, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           publisher.NewHTTPHandler(p, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, registry, logger, component, nil)
		g.Go(func() error {
			return metricsServer.Start(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newBus(ctx context.Context, cfg config.Publisher, logger *zap.Logger) (relay.Bus, func(), error) {
	switch cfg.BusDriver {
	case config.BusEventBridge:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to load aws config: %w", relay.ErrConfiguration, err)
		}
		return eventbridge.NewBusFromConfig(awsCfg), func() {}, nil

	case config.BusNATS:
		conn, js, err := nats.Connect(cfg.NATS, "relay-publisher", logger)
		if err != nil {
			return nil, nil, err
		}
		if err := nats.EnsureStream(ctx, js, cfg.NATS, cfg.BusName); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return nats.NewBus(js), func() { _ = conn.Drain() }, nil

	case config.BusKafka:
		b := kafka.NewBus(kafka.NewWriter(cfg.Kafka))
		return b, func() {
			if err := b.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}, nil

	case config.BusPubSub:
		client, err := pubsub.NewClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, nil, err
		}
		b := pubsub.NewBus(client, logger)
		return b, func() {
			b.Stop()
			_ = client.Close()
		}, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown bus driver %q", relay.ErrConfiguration, cfg.BusDriver)
}
