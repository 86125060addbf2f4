package publisher

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPHandler_Publish(t *testing.T) {
	bus := &fakeBus{id: "evt-http"}
	handler := NewHTTPHandler(newTestPublisher(t, bus), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/events?source=test", strings.NewReader(`{"forward": true, "x": 1}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Event published successfully","eventId":"evt-http","forwarded":true}`, rr.Body.String())

	require.Len(t, bus.events, 1)
	env := decodeEnvelope(t, bus.events[0])
	assert.Equal(t, "forward", env.Type)

	var proxy struct {
		HTTPMethod            string            `json:"httpMethod"`
		Path                  string            `json:"path"`
		Headers               map[string]string `json:"headers"`
		QueryStringParameters map[string]string `json:"queryStringParameters"`
		Body                  string            `json:"body"`
	}
	require.NoError(t, json.Unmarshal(env.RequestData, &proxy))
	assert.Equal(t, http.MethodPost, proxy.HTTPMethod)
	assert.Equal(t, "/events", proxy.Path)
	assert.Equal(t, "application/json", proxy.Headers["Content-Type"])
	assert.Equal(t, "test", proxy.QueryStringParameters["source"])
	assert.Equal(t, `{"forward": true, "x": 1}`, proxy.Body)
}

func TestHTTPHandler_MethodNotAllowed(t *testing.T) {
	bus := &fakeBus{id: "evt"}
	handler := NewHTTPHandler(newTestPublisher(t, bus), zap.NewNop())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Empty(t, bus.events)
}

func TestHTTPHandler_Health(t *testing.T) {
	handler := NewHTTPHandler(newTestPublisher(t, &fakeBus{}), zap.NewNop())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestHTTPHandler_BodyTooLarge(t *testing.T) {
	bus := &fakeBus{id: "evt"}
	handler := NewHTTPHandler(newTestPublisher(t, bus), zap.NewNop())

	body := strings.Repeat("a", MaxBodyBytes+1)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "failed to read request body")
	assert.Empty(t, bus.events)
}
