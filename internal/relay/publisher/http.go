package publisher

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"relay/internal/relay"
)

// MaxBodyBytes caps request bodies accepted by the HTTP handler.
const MaxBodyBytes = 1 << 20

// NewHTTPHandler exposes p over plain HTTP. Every POST is shaped into the
// proxy event API Gateway would deliver, so requestData has the same form in
// both runtimes.
func NewHTTPHandler(p *Publisher, logger *zap.Logger) http.Handler {
	logger = logger.Named("publisher-http")
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		raw, err := proxyEvent(w, r)
		if err != nil {
			logger.Warn("failed to read request", zap.Error(err))
			writeResponse(w, relay.JSONResponse(http.StatusBadRequest, errorResult{Error: "failed to read request body: " + err.Error()}))
			return
		}

		writeResponse(w, p.Handle(r.Context(), raw))
	})

	return mux
}

func writeResponse(w http.ResponseWriter, resp relay.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}

func proxyEvent(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, err
	}

	req := events.APIGatewayProxyRequest{
		Resource:                        r.URL.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         make(map[string]string, len(r.Header)),
		MultiValueHeaders:               map[string][]string(r.Header.Clone()),
		QueryStringParameters:           make(map[string]string),
		MultiValueQueryStringParameters: map[string][]string(r.URL.Query()),
		RequestContext: events.APIGatewayProxyRequestContext{
			Path:       r.URL.Path,
			HTTPMethod: r.Method,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}
	for name := range r.Header {
		req.Headers[name] = r.Header.Get(name)
	}
	for name, values := range r.URL.Query() {
		req.QueryStringParameters[name] = values[0]
	}

	if utf8.Valid(body) {
		req.Body = string(body)
	} else {
		req.Body = base64.StdEncoding.EncodeToString(body)
		req.IsBase64Encoded = true
	}

	return json.Marshal(req)
}
