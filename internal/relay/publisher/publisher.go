// Package publisher turns inbound HTTP-shaped requests into events on the
// configured bus.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"relay/internal/relay"
	"relay/internal/validator"
)

const successMessage = "Event published successfully"

// Publisher publishes one event per handled request. It is safe for
// concurrent use; all state is fixed at construction.
type Publisher struct {
	bus     relay.Bus
	busName string
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock overrides the clock used to stamp envelopes.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// NewPublisher creates a publisher for the named bus. An empty bus name is a
// configuration error.
func NewPublisher(bus relay.Bus, busName string, logger *zap.Logger, opts ...Option) (*Publisher, error) {
	if busName == "" {
		return nil, fmt.Errorf("%w: event bus name is required", relay.ErrConfiguration)
	}

	p := Publisher{
		bus:     bus,
		busName: busName,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&p)
	}

	if err := validator.Validate("publisher", p.bus, p.logger, p.now); err != nil {
		return nil, fmt.Errorf("failed to validate publisher deps: %w", err)
	}
	p.logger = p.logger.Named("publisher")

	return &p, nil
}

type publishResult struct {
	Message   string `json:"message"`
	EventID   string `json:"eventId"`
	Forwarded bool   `json:"forwarded"`
}

type errorResult struct {
	Error string `json:"error"`
}

// Handle publishes raw and always returns a well-formed response: 200 with
// the event id on success, 500 with the error message otherwise.
func (p *Publisher) Handle(ctx context.Context, raw []byte) relay.Response {
	res, err := p.publish(ctx, raw)
	if err != nil {
		const msg = "failed to publish event"
		p.logger.Error(msg, zap.String("bus", p.busName), zap.Error(err))
		return relay.JSONResponse(http.StatusInternalServerError, errorResult{Error: err.Error()})
	}

	return relay.JSONResponse(http.StatusOK, res)
}

// HandleLambda adapts Handle to the Lambda handler signature. It never
// returns an error.
func (p *Publisher) HandleLambda(ctx context.Context, raw json.RawMessage) (relay.Response, error) {
	return p.Handle(ctx, raw), nil
}

func (p *Publisher) publish(ctx context.Context, raw []byte) (publishResult, error) {
	req, err := relay.NewInboundRequest(raw)
	if err != nil {
		return publishResult{}, err
	}

	body, err := req.DecodeBody()
	if err != nil {
		p.logger.Debug("request body not decodable, using empty body", zap.Error(err))
	}
	forward := relay.IsForward(body)

	event, err := relay.NewEvent(p.busName, relay.NewEnvelope(p.now(), req, forward))
	if err != nil {
		return publishResult{}, err
	}

	id, err := p.bus.Publish(ctx, event)
	if err != nil {
		return publishResult{}, fmt.Errorf("failed to publish to bus %s: %w", p.busName, err)
	}

	p.logger.Info("event published",
		zap.String("eventId", id),
		zap.String("bus", p.busName),
		zap.String("type", string(relay.RoutingFor(forward))),
	)

	return publishResult{
		Message:   successMessage,
		EventID:   id,
		Forwarded: forward,
	}, nil
}
