// Package nats carries relay events over NATS JetStream. The bus name is used
// as the subject; a single stream captures every configured subject.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"relay/internal/bus"
	"relay/internal/relay"
)

// Config holds NATS connection and JetStream settings.
type Config struct {
	URL        string        `env:"URL" envDefault:"nats://localhost:4222"`
	Stream     string        `env:"STREAM" envDefault:"RELAY"`
	Consumer   string        `env:"CONSUMER" envDefault:"relay-subscriber"`
	AckWait    time.Duration `env:"ACK_WAIT" envDefault:"30s"`
	MaxDeliver int           `env:"MAX_DELIVER" envDefault:"5"`
	MaxAge     time.Duration `env:"MAX_AGE" envDefault:"24h"`
}

// Connect opens a connection and a JetStream context.
func Connect(cfg Config, name string, logger *zap.Logger) (*nats.Conn, jetstream.JetStream, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	return conn, js, nil
}

// EnsureStream creates or updates the stream capturing subject.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg Config, subject string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{subject},
		MaxAge:    cfg.MaxAge,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", cfg.Stream, err)
	}

	return nil
}

// Publisher is the part of jetstream.JetStream used by Bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Bus publishes events synchronously and waits for the stream ack.
type Bus struct {
	js Publisher
}

// NewBus creates a JetStream bus.
func NewBus(js Publisher) *Bus {
	return &Bus{js: js}
}

// Publish implements relay.Bus. The returned id is the CloudEvent id the
// subscriber will see.
func (b *Bus) Publish(ctx context.Context, event relay.Event) (string, error) {
	id, data, err := bus.Encode(event)
	if err != nil {
		return "", err
	}

	if _, err := b.js.Publish(ctx, event.BusName, data, jetstream.WithMsgID(id)); err != nil {
		return "", fmt.Errorf("%w: failed to publish to subject %s: %w", relay.ErrDependency, event.BusName, err)
	}

	return id, nil
}

// ConsumerManager is the part of jetstream.JetStream used by Source.
type ConsumerManager interface {
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// Source consumes events through a durable pull consumer.
type Source struct {
	js      ConsumerManager
	cfg     Config
	subject string
	logger  *zap.Logger
}

// NewSource creates a source reading subject from the configured stream.
func NewSource(js ConsumerManager, cfg Config, subject string, logger *zap.Logger) *Source {
	return &Source{
		js:      js,
		cfg:     cfg,
		subject: subject,
		logger:  logger.Named("nats-source"),
	}
}

// Receive implements relay.Receiver. Successful deliveries are acked, failed
// ones are nacked for redelivery up to MaxDeliver attempts.
func (s *Source) Receive(ctx context.Context, fn relay.DeliverFunc) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.cfg.Stream, jetstream.ConsumerConfig{
		Durable:       s.cfg.Consumer,
		FilterSubject: s.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.cfg.AckWait,
		MaxDeliver:    s.cfg.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer %s: %w", s.cfg.Consumer, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := bus.Decode(msg.Data())
		if err == nil {
			err = fn(ctx, event)
		}
		if err != nil {
			s.logger.Error("delivery failed, nacking message", zap.String("subject", msg.Subject()), zap.Error(err))
			if nakErr := msg.Nak(); nakErr != nil {
				s.logger.Warn("failed to nack message", zap.Error(nakErr))
			}
			return
		}

		if err := msg.Ack(); err != nil {
			s.logger.Warn("failed to ack message", zap.String("eventId", event.ID), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	s.logger.Info("consuming", zap.String("stream", s.cfg.Stream), zap.String("subject", s.subject))
	<-ctx.Done()

	return nil
}
