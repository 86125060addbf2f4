// Package subscriber persists delivered events as records in the configured
// store.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"relay/internal/relay"
	"relay/internal/validator"
)

const successMessage = "Event processed successfully"

// Subscriber writes one record per delivered event. Failures are logged and
// returned so the delivering platform can retry or dead-letter the event.
type Subscriber struct {
	store  relay.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Subscriber) {
		s.now = now
	}
}

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Subscriber) {
		s.newID = newID
	}
}

// NewSubscriber creates a subscriber writing to store.
func NewSubscriber(store relay.Store, logger *zap.Logger, opts ...Option) (*Subscriber, error) {
	s := Subscriber{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if err := validator.Validate("subscriber", s.store, s.logger, s.now, s.newID); err != nil {
		return nil, fmt.Errorf("failed to validate subscriber deps: %w", err)
	}
	s.logger = s.logger.Named("subscriber")

	return &s, nil
}

// Handle persists event. The record id is generated fresh on every call, so
// redelivered events produce distinct records.
func (s *Subscriber) Handle(ctx context.Context, event relay.DeliveredEvent) (relay.Response, error) {
	logger := s.logger.With(zap.String("eventId", event.ID))

	record, err := relay.NewRecord(s.newID(), s.now(), event)
	if err != nil {
		const msg = "failed to build record"
		logger.Error(msg, zap.Error(err))
		return relay.Response{}, fmt.Errorf(msg+": %w", err)
	}

	if err := s.store.Put(ctx, record); err != nil {
		const msg = "failed to store record"
		logger.Error(msg, zap.String("recordId", record.ID), zap.Error(err))
		return relay.Response{}, fmt.Errorf(msg+" %s: %w", record.ID, err)
	}

	logger.Info("record stored", zap.String("recordId", record.ID))

	return relay.JSONResponse(http.StatusOK, successMessage), nil
}

// Deliver adapts Handle to relay.DeliverFunc for message-bus sources.
func (s *Subscriber) Deliver(ctx context.Context, event relay.DeliveredEvent) error {
	_, err := s.Handle(ctx, event)
	return err
}

// HandleLambda handles an EventBridge delivery.
func (s *Subscriber) HandleLambda(ctx context.Context, event events.CloudWatchEvent) (relay.Response, error) {
	return s.Handle(ctx, FromCloudWatchEvent(event))
}

// FromCloudWatchEvent converts an EventBridge delivery.
func FromCloudWatchEvent(event events.CloudWatchEvent) relay.DeliveredEvent {
	return relay.DeliveredEvent{
		ID:         event.ID,
		Source:     event.Source,
		DetailType: event.DetailType,
		Detail:     json.RawMessage(event.Detail),
	}
}
