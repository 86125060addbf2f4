package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InboundRequest is the request received by the publisher, kept as the raw
// JSON it arrived as so that it can be embedded in the envelope verbatim.
type InboundRequest json.RawMessage

// NewInboundRequest validates raw as JSON. An empty payload is treated as an
// empty object.
func NewInboundRequest(raw []byte) (InboundRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return InboundRequest("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: inbound request is not valid JSON", ErrDecode)
	}

	return InboundRequest(bytes.Clone(raw)), nil
}

// MarshalJSON returns the request unchanged.
func (r InboundRequest) MarshalJSON() ([]byte, error) {
	return json.RawMessage(r).MarshalJSON()
}

// UnmarshalJSON keeps a copy of data.
func (r *InboundRequest) UnmarshalJSON(data []byte) error {
	*r = InboundRequest(bytes.Clone(data))
	return nil
}

// DecodeBody returns the request body as a map. The body may be a JSON
// encoded string or an already decoded object. An absent body yields an empty
// map; a body that cannot be decoded into an object yields an empty map and
// an error wrapping ErrDecode.
func (r InboundRequest) DecodeBody() (map[string]any, error) {
	var req struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(r, &req); err != nil {
		return map[string]any{}, fmt.Errorf("%w: failed to read request: %w", ErrDecode, err)
	}

	raw := bytes.TrimSpace(req.Body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return map[string]any{}, fmt.Errorf("%w: failed to read body string: %w", ErrDecode, err)
		}
		raw = []byte(s)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return map[string]any{}, fmt.Errorf("%w: failed to parse body: %w", ErrDecode, err)
	}
	if body == nil {
		return map[string]any{}, nil
	}

	return body, nil
}

// IsForward reports whether a decoded body carries "forward": true.
func IsForward(body map[string]any) bool {
	forward, ok := body["forward"].(bool)
	return ok && forward
}
