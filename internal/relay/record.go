package relay

import (
	"fmt"
	"time"
)

// StoredRecord is the item the subscriber writes for every delivered event.
type StoredRecord struct {
	ID           string         `json:"id" dynamodbav:"id"`
	Timestamp    string         `json:"timestamp" dynamodbav:"timestamp"`
	Message      string         `json:"message" dynamodbav:"message"`
	EventDetails map[string]any `json:"eventDetails" dynamodbav:"eventDetails"`
}

// NewRecord builds the record for event. id must be freshly generated for
// every call; it is never derived from the event.
func NewRecord(id string, now time.Time, event DeliveredEvent) (StoredRecord, error) {
	message, err := event.Message()
	if err != nil {
		return StoredRecord{}, err
	}

	details, err := event.Details()
	if err != nil {
		return StoredRecord{}, err
	}

	return StoredRecord{
		ID:           id,
		Timestamp:    FormatTimestamp(now),
		Message:      message,
		EventDetails: details,
	}, nil
}

// RecordKey is the document key used by key-value stores.
func RecordKey(id string) string {
	return fmt.Sprintf("record::%s", id)
}
