// Package kafka carries relay events over Kafka. The bus name is used as the
// topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"relay/internal/bus"
	"relay/internal/relay"
)

// Config holds broker and consumer group settings.
type Config struct {
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID string   `env:"GROUP_ID" envDefault:"relay-subscriber"`
}

// Writer is the part of kafka.Writer used by Bus.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Bus writes one message per event and waits for all in-sync replicas.
type Bus struct {
	writer Writer
}

// NewWriter creates a synchronous writer without a fixed topic.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            1,
		WriteTimeout:           10 * time.Second,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
}

// NewBus creates a Kafka bus.
func NewBus(writer Writer) *Bus {
	return &Bus{writer: writer}
}

// Publish implements relay.Bus. The returned id is the CloudEvent id, also
// used as the message key.
func (b *Bus) Publish(ctx context.Context, event relay.Event) (string, error) {
	id, data, err := bus.Encode(event)
	if err != nil {
		return "", err
	}

	attrs := bus.Attributes(id, event)
	headers := make([]kafka.Header, 0, len(attrs))
	for k, v := range attrs {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic:   event.BusName,
		Key:     []byte(id),
		Value:   data,
		Headers: headers,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to write message to topic %s: %w", relay.ErrDependency, event.BusName, err)
	}

	return id, nil
}

// Close flushes and closes the writer.
func (b *Bus) Close() error {
	return b.writer.Close()
}

// Reader is the part of kafka.Reader used by Source.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader creates a consumer group reader for topic.
func NewReader(cfg Config, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
}

// Source consumes events from a consumer group. Offsets are committed only
// after a successful delivery; a failed delivery stops the source so the
// message is redelivered to the next group member or restart.
type Source struct {
	reader Reader
	logger *zap.Logger
}

// NewSource creates a Kafka source.
func NewSource(reader Reader, logger *zap.Logger) *Source {
	return &Source{
		reader: reader,
		logger: logger.Named("kafka-source"),
	}
}

// Receive implements relay.Receiver.
func (s *Source) Receive(ctx context.Context, fn relay.DeliverFunc) error {
	defer s.reader.Close()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		event, err := bus.Decode(msg.Value)
		if err == nil {
			err = fn(ctx, event)
		}
		if err != nil {
			const errMsg = "failed to deliver message"
			s.logger.Error(errMsg,
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return fmt.Errorf(errMsg+" at offset %d: %w", msg.Offset, err)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}
	}
}
