// Package bus holds the wire format shared by the message-bus drivers. Events
// travel as structured-mode CloudEvents: the id is the event identifier
// returned to the publisher, source and type carry the fixed relay source and
// detail type, and data is the envelope.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"relay/internal/relay"
)

// ExtensionBusName carries the target bus name.
const ExtensionBusName = "eventbus"

// Encode wraps e in a CloudEvent and returns the event id with its JSON form.
func Encode(e relay.Event) (string, []byte, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetSource(e.Source)
	ce.SetType(e.DetailType)
	ce.SetTime(time.Now().UTC())
	ce.SetExtension(ExtensionBusName, e.BusName)

	if err := ce.SetData(cloudevents.ApplicationJSON, []byte(e.Detail)); err != nil {
		return "", nil, fmt.Errorf("failed to set event data: %w", err)
	}

	if err := ce.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid cloudevent: %w", err)
	}

	data, err := json.Marshal(ce)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal cloudevent: %w", err)
	}

	return ce.ID(), data, nil
}

// Decode reads a CloudEvent produced by Encode.
func Decode(data []byte) (relay.DeliveredEvent, error) {
	ce := cloudevents.NewEvent()
	if err := json.Unmarshal(data, &ce); err != nil {
		return relay.DeliveredEvent{}, fmt.Errorf("%w: failed to unmarshal cloudevent: %w", relay.ErrDecode, err)
	}

	if err := ce.Validate(); err != nil {
		return relay.DeliveredEvent{}, fmt.Errorf("%w: invalid cloudevent: %w", relay.ErrDecode, err)
	}

	return relay.DeliveredEvent{
		ID:         ce.ID(),
		Source:     ce.Source(),
		DetailType: ce.Type(),
		Detail:     json.RawMessage(ce.Data()),
	}, nil
}

// Attributes returns transport attributes for protocols that carry headers
// alongside the structured payload.
func Attributes(id string, e relay.Event) map[string]string {
	return map[string]string{
		"ce-id":          id,
		"ce-source":      e.Source,
		"ce-type":        e.DetailType,
		"ce-specversion": cloudevents.VersionV1,
		"content-type":   "application/cloudevents+json; charset=UTF-8",
	}
}
