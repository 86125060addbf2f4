package relay

import "time"

// RoutingType tags an envelope for the bus rules downstream.
type RoutingType string

const (
	RoutingForward  RoutingType = "forward"
	RoutingStandard RoutingType = "standard"
)

// RoutingFor maps the request's forward flag to its routing tag.
func RoutingFor(forward bool) RoutingType {
	if forward {
		return RoutingForward
	}
	return RoutingStandard
}

// EventEnvelope wraps the original request with a timestamp and routing tag.
// It is the detail of every published event.
type EventEnvelope struct {
	Timestamp   string         `json:"timestamp"`
	RequestData InboundRequest `json:"requestData"`
	Type        RoutingType    `json:"type"`
}

// NewEnvelope builds the envelope for req at the given time.
func NewEnvelope(now time.Time, req InboundRequest, forward bool) EventEnvelope {
	return EventEnvelope{
		Timestamp:   FormatTimestamp(now),
		RequestData: req,
		Type:        RoutingFor(forward),
	}
}
