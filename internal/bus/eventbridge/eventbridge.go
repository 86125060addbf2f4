// Package eventbridge publishes relay events to an Amazon EventBridge bus.
package eventbridge

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"relay/internal/relay"
)

// PutEventsAPI is the part of the EventBridge client used by Bus.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Bus publishes events with PutEvents, one entry per call.
type Bus struct {
	client PutEventsAPI
}

// NewBus creates an EventBridge bus from an SDK client.
func NewBus(client PutEventsAPI) *Bus {
	return &Bus{client: client}
}

// NewBusFromConfig creates an EventBridge bus from an AWS config.
func NewBusFromConfig(cfg aws.Config) *Bus {
	return NewBus(eventbridge.NewFromConfig(cfg))
}

// Publish submits event and returns the EventId of the first result entry. A
// failed entry is reported as an error even though the call itself succeeded.
func (b *Bus) Publish(ctx context.Context, event relay.Event) (string, error) {
	out, err := b.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				Source:       aws.String(event.Source),
				DetailType:   aws.String(event.DetailType),
				Detail:       aws.String(string(event.Detail)),
				EventBusName: aws.String(event.BusName),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to put events: %w", relay.ErrDependency, err)
	}

	if len(out.Entries) == 0 {
		return "", fmt.Errorf("%w: put events returned no entries", relay.ErrDependency)
	}

	entry := out.Entries[0]
	if entry.ErrorCode != nil || out.FailedEntryCount > 0 {
		return "", fmt.Errorf("%w: event rejected: %s: %s", relay.ErrDependency,
			aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
	}

	return aws.ToString(entry.EventId), nil
}
