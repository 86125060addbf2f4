// Package config loads process configuration for the relay binaries from the
// environment.
package config

import (
	"fmt"
	"log"
	"slices"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"relay/internal/bus/kafka"
	"relay/internal/bus/nats"
	"relay/internal/bus/pubsub"
	"relay/internal/couchbase"
	"relay/internal/relay"
	"relay/internal/relay/metrics"
	"relay/internal/relay/tracing"
	"relay/internal/store/postgres"
	"relay/internal/store/redis"
)

// Runtime values.
const (
	RuntimeLambda = "lambda"
	RuntimeServer = "server"
)

// Bus drivers.
const (
	BusEventBridge = "eventbridge"
	BusNATS        = "nats"
	BusKafka       = "kafka"
	BusPubSub      = "pubsub"
)

// Store drivers.
const (
	StoreDynamoDB  = "dynamodb"
	StoreCouchbase = "couchbase"
	StorePostgres  = "postgres"
	StoreRedis     = "redis"
)

var (
	runtimes     = []string{RuntimeLambda, RuntimeServer}
	busDrivers   = []string{BusEventBridge, BusNATS, BusKafka, BusPubSub}
	storeDrivers = []string{StoreDynamoDB, StoreCouchbase, StorePostgres, StoreRedis}
)

// Common holds settings shared by both binaries.
type Common struct {
	Runtime   string `env:"RUNTIME" envDefault:"lambda"`
	BusDriver string `env:"BUS_DRIVER" envDefault:"eventbridge"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	Metrics metrics.ServerConfig
	Tracing tracing.Config

	NATS   nats.Config   `envPrefix:"NATS_"`
	Kafka  kafka.Config  `envPrefix:"KAFKA_"`
	PubSub pubsub.Config `envPrefix:"PUBSUB_"`
}

func (c Common) validate() error {
	if !slices.Contains(runtimes, c.Runtime) {
		return fmt.Errorf("%w: unknown RUNTIME %q", relay.ErrConfiguration, c.Runtime)
	}
	if !slices.Contains(busDrivers, c.BusDriver) {
		return fmt.Errorf("%w: unknown BUS_DRIVER %q", relay.ErrConfiguration, c.BusDriver)
	}
	return nil
}

// Publisher is the publisher binary's configuration.
type Publisher struct {
	Common

	BusName  string `env:"EVENT_BUS_NAME,required,notEmpty"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
}

// Subscriber is the subscriber binary's configuration. BusName names the
// subject or topic consumed in server runtime and is only required there for
// the NATS and Kafka drivers.
type Subscriber struct {
	Common

	TableName   string `env:"TABLE_NAME,required,notEmpty"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"dynamodb"`
	BusName     string `env:"EVENT_BUS_NAME"`

	Couchbase couchbase.Config `envPrefix:"COUCHBASE_"`
	Postgres  postgres.Config  `envPrefix:"POSTGRES_"`
	Redis     redis.Config     `envPrefix:"REDIS_"`
}

// LoadPublisher parses and validates the publisher configuration.
func LoadPublisher() (Publisher, error) {
	var cfg Publisher
	if err := env.Parse(&cfg); err != nil {
		return Publisher{}, fmt.Errorf("%w: %w", relay.ErrConfiguration, err)
	}
	if err := cfg.validate(); err != nil {
		return Publisher{}, err
	}
	return cfg, nil
}

// LoadSubscriber parses and validates the subscriber configuration.
func LoadSubscriber() (Subscriber, error) {
	var cfg Subscriber
	if err := env.Parse(&cfg); err != nil {
		return Subscriber{}, fmt.Errorf("%w: %w", relay.ErrConfiguration, err)
	}
	if err := cfg.validate(); err != nil {
		return Subscriber{}, err
	}
	if !slices.Contains(storeDrivers, cfg.StoreDriver) {
		return Subscriber{}, fmt.Errorf("%w: unknown STORE_DRIVER %q", relay.ErrConfiguration, cfg.StoreDriver)
	}
	if cfg.Runtime == RuntimeServer && cfg.BusName == "" && (cfg.BusDriver == BusNATS || cfg.BusDriver == BusKafka) {
		return Subscriber{}, fmt.Errorf("%w: EVENT_BUS_NAME is required to consume from %s", relay.ErrConfiguration, cfg.BusDriver)
	}
	if cfg.Runtime == RuntimeServer && cfg.BusDriver == BusEventBridge {
		return Subscriber{}, fmt.Errorf("%w: eventbridge delivers through lambda, use RUNTIME=lambda", relay.ErrConfiguration)
	}
	return cfg, nil
}

// NewLogger builds a production zap logger at level. An unparseable level
// falls back to info.
func NewLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", level, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
