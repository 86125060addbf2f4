// Package relay defines the types shared by the event publisher and the
// destination subscriber: the envelope placed on the bus, the record written
// to the store, and the interfaces both sides are built against.
package relay

import (
	"context"
	"time"
)

const (
	// Source is attached to every published event.
	Source = "custom.events"
	// DetailType is attached to every published event.
	DetailType = "CustomEvent"
)

// Bus defines the interface for publishing events to a named event bus.
type Bus interface {
	// Publish submits a single event and returns the identifier the bus
	// assigned to it.
	Publish(ctx context.Context, event Event) (string, error)
}

// Store defines the interface for persisting subscriber records.
type Store interface {
	// Put writes the record unconditionally.
	Put(ctx context.Context, record StoredRecord) error
}

// DeliverFunc handles one event delivered by a Receiver. A non-nil error means
// the delivery failed and the source should apply its redelivery policy.
type DeliverFunc func(ctx context.Context, event DeliveredEvent) error

// Receiver defines the interface for long-running consumers that deliver
// events from a message bus to the subscriber.
type Receiver interface {
	// Receive blocks, delivering events to fn until ctx is done or the
	// source fails.
	Receive(ctx context.Context, fn DeliverFunc) error
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
