package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event is a single entry submitted to an event bus.
type Event struct {
	Source     string
	DetailType string
	Detail     json.RawMessage
	BusName    string
}

// NewEvent serializes env into an event for the named bus using the fixed
// source and detail type.
func NewEvent(busName string, env EventEnvelope) (Event, error) {
	detail, err := json.Marshal(env)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return Event{
		Source:     Source,
		DetailType: DetailType,
		Detail:     detail,
		BusName:    busName,
	}, nil
}

// DeliveredEvent is an event handed to the subscriber by the bus.
type DeliveredEvent struct {
	ID         string
	Source     string
	DetailType string
	Detail     json.RawMessage
}

// Message returns detail.requestData.body. A string body is returned as is,
// any other JSON value as its compact JSON text. An absent or null body is an
// ErrMissingField error.
func (e DeliveredEvent) Message() (string, error) {
	var d struct {
		RequestData *struct {
			Body json.RawMessage `json:"body"`
		} `json:"requestData"`
	}
	if err := json.Unmarshal(e.Detail, &d); err != nil {
		return "", fmt.Errorf("%w: failed to read event detail: %w", ErrDecode, err)
	}

	if d.RequestData == nil {
		return "", fmt.Errorf("%w: detail.requestData", ErrMissingField)
	}

	body := bytes.TrimSpace(d.RequestData.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return "", fmt.Errorf("%w: detail.requestData.body", ErrMissingField)
	}

	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return "", fmt.Errorf("%w: failed to read body string: %w", ErrDecode, err)
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return "", fmt.Errorf("%w: failed to compact body: %w", ErrDecode, err)
	}

	return buf.String(), nil
}

// Details decodes the whole detail object. Numbers are kept as json.Number so
// integers beyond float64 precision survive unchanged.
func (e DeliveredEvent) Details() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(e.Detail))
	dec.UseNumber()

	var details map[string]any
	if err := dec.Decode(&details); err != nil {
		return nil, fmt.Errorf("%w: failed to decode event detail: %w", ErrDecode, err)
	}
	if details == nil {
		return nil, fmt.Errorf("%w: event detail is null", ErrDecode)
	}

	return details, nil
}
