// Package pubsub carries relay events over Google Cloud Pub/Sub. The bus name
// is used as the topic id.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"relay/internal/bus"
	"relay/internal/relay"
)

// Config holds Pub/Sub settings. An empty ProjectID uses the project detected
// from application default credentials.
type Config struct {
	ProjectID      string `env:"PROJECT_ID"`
	Subscription   string `env:"SUBSCRIPTION" envDefault:"relay-subscriber"`
	MaxOutstanding int    `env:"MAX_OUTSTANDING" envDefault:"100"`
}

// NewClient creates a Pub/Sub client for cfg.
func NewClient(ctx context.Context, cfg Config) (*pubsub.Client, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = pubsub.DetectProjectID
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return client, nil
}

// Bus publishes events and waits for the server ack. Topic handles are
// created on first use and reused.
type Bus struct {
	client *pubsub.Client
	logger *zap.Logger

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewBus creates a Pub/Sub bus.
func NewBus(client *pubsub.Client, logger *zap.Logger) *Bus {
	return &Bus{
		client: client,
		logger: logger.Named("pubsub-bus"),
		topics: make(map[string]*pubsub.Topic),
	}
}

func (b *Bus) topic(name string) *pubsub.Topic {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[name]
	if !ok {
		t = b.client.Topic(name)
		b.topics[name] = t
	}
	return t
}

// Publish implements relay.Bus. The returned id is the CloudEvent id; the
// server-assigned message id is logged.
func (b *Bus) Publish(ctx context.Context, event relay.Event) (string, error) {
	id, data, err := bus.Encode(event)
	if err != nil {
		return "", err
	}

	result := b.topic(event.BusName).Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: bus.Attributes(id, event),
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to publish to topic %s: %w", relay.ErrDependency, event.BusName, err)
	}

	b.logger.Debug("message published", zap.String("eventId", id), zap.String("messageId", serverID))

	return id, nil
}

// Stop flushes pending messages on every topic handle.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.topics {
		t.Stop()
	}
}

// Source receives events from a subscription.
type Source struct {
	sub    *pubsub.Subscription
	logger *zap.Logger
}

// NewSource creates a source for the configured subscription.
func NewSource(client *pubsub.Client, cfg Config, logger *zap.Logger) *Source {
	sub := client.Subscription(cfg.Subscription)
	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstanding

	return &Source{
		sub:    sub,
		logger: logger.Named("pubsub-source"),
	}
}

// Receive implements relay.Receiver. Successful deliveries are acked, failed
// ones nacked so the subscription's retry and dead-letter policy applies.
func (s *Source) Receive(ctx context.Context, fn relay.DeliverFunc) error {
	s.logger.Info("receiving", zap.String("subscription", s.sub.ID()))

	err := s.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		event, err := bus.Decode(msg.Data)
		if err == nil {
			err = fn(ctx, event)
		}
		if err != nil {
			s.logger.Error("delivery failed, nacking message", zap.String("messageId", msg.ID), zap.Error(err))
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to receive from subscription %s: %w", s.sub.ID(), err)
	}

	return nil
}
