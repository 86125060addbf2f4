package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	req, err := NewInboundRequest([]byte(`{"body": {}}`))
	require.NoError(t, err)

	env := NewEnvelope(time.Now(), req, false)
	e, err := NewEvent("relay-bus", env)
	require.NoError(t, err)

	assert.Equal(t, "custom.events", e.Source)
	assert.Equal(t, "CustomEvent", e.DetailType)
	assert.Equal(t, "relay-bus", e.BusName)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(e.Detail, &detail))
	assert.Equal(t, "standard", detail["type"])
	assert.Equal(t, map[string]any{"body": map[string]any{}}, detail["requestData"])
}

func TestDeliveredEvent_Message(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		expected string
		err      error
	}{
		{name: "string body", detail: `{"requestData": {"body": "hello"}}`, expected: "hello"},
		{name: "object body", detail: `{"requestData": {"body": {"a": 1}}}`, expected: `{"a":1}`},
		{name: "missing requestData", detail: `{"type": "forward"}`, err: ErrMissingField},
		{name: "missing body", detail: `{"requestData": {}}`, err: ErrMissingField},
		{name: "null body", detail: `{"requestData": {"body": null}}`, err: ErrMissingField},
		{name: "detail not an object", detail: `"text"`, err: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DeliveredEvent{Detail: json.RawMessage(tt.detail)}
			msg, err := e.Message()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestNewRecord(t *testing.T) {
	detail := `{"requestData": {"body": "hello"}, "type": "forward", "timestamp": "2024-01-01T00:00:00Z"}`
	e := DeliveredEvent{ID: "evt-1", Detail: json.RawMessage(detail)}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	rec, err := NewRecord("rec-1", now, e)
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", rec.Timestamp)
	assert.Equal(t, "hello", rec.Message)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(detail), &expected))
	assert.Equal(t, expected, rec.EventDetails)

	_, err = NewRecord("rec-2", now, DeliveredEvent{Detail: json.RawMessage(`null`)})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNewRecord_PreservesLargeIntegers(t *testing.T) {
	detail := `{"requestData":{"body":"hello","requestContext":{"requestTimeEpoch":1712345678901234567}},"ratio":0.25}`
	e := DeliveredEvent{ID: "evt-1", Detail: json.RawMessage(detail)}

	rec, err := NewRecord("rec-1", time.Now(), e)
	require.NoError(t, err)

	ctx := rec.EventDetails["requestData"].(map[string]any)["requestContext"].(map[string]any)
	assert.Equal(t, json.Number("1712345678901234567"), ctx["requestTimeEpoch"])

	data, err := json.Marshal(rec.EventDetails)
	require.NoError(t, err)
	assert.JSONEq(t, detail, string(data))
	assert.Contains(t, string(data), "1712345678901234567")
}

func TestJSONResponse(t *testing.T) {
	resp := JSONResponse(200, map[string]any{"ok": true})
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"ok": true}`, resp.Body)

	resp = JSONResponse(200, func() {})
	assert.Equal(t, 500, resp.StatusCode)
	assert.Contains(t, resp.Body, "error")
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "record::abc", RecordKey("abc"))
}
