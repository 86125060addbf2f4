package relay

import (
	"encoding/json"
	"net/http"
)

// Response is the HTTP-shaped result returned by both handlers. Its JSON form
// matches the proxy integration response expected by API Gateway.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// JSONResponse encodes v as the response body. Encoding failures produce a
// 500 response carrying the encoding error.
func JSONResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
		status = http.StatusInternalServerError
	}

	return Response{StatusCode: status, Body: string(body)}
}
