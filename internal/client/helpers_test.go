package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// recordedRequest is a request received by a testServer.
type recordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// DecodeBody decodes the recorded JSON body into out.
func (r recordedRequest) DecodeBody(t *testing.T, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, out))
}

// testServer records every request before passing it to its handler.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()

	srv := &testServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		request.Body = io.NopCloser(bytes.NewReader(body))

		srv.mu.Lock()
		srv.requests = append(srv.requests, recordedRequest{
			Method:   request.Method,
			Path:     request.URL.EscapedPath(),
			RawQuery: request.URL.RawQuery,
			Header:   request.Header.Clone(),
			Body:     body,
		})
		srv.mu.Unlock()

		handler(writer, request)
	}))
	t.Cleanup(srv.Close)

	return srv
}

// Requests returns a copy of the recorded requests.
func (s *testServer) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedRequest(nil), s.requests...)
}

// writeJSON writes body as a JSON response with status.
func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if body != nil {
		_ = json.NewEncoder(writer).Encode(body)
	}
}

// testConfig returns a token-only configuration pointing both base URLs at serverURL.
func testConfig(serverURL string) *encompass.Config {
	return &encompass.Config{
		ClientID:    "client-id",
		APISecret:   "api-secret",
		InstanceID:  "BE11111111",
		BaseURL:     serverURL,
		AuthBaseURL: serverURL,
		AccessToken: testToken,
	}
}

// NewTestClient creates a client holding testToken for serverURL.
func NewTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	client, err := New(context.Background(), testConfig(serverURL))
	require.NoError(t, err)

	return client
}

// milestonesHandler answers the milestone list of loan-guid and delegates
// every other request to next.
func milestonesHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodGet && request.URL.Path == "/v1/loans/loan-guid/milestones" {
			writeJSON(writer, http.StatusOK, []encompass.Milestone{
				{ID: "ms-started", MilestoneName: "Started"},
				{ID: "ms-processing", MilestoneName: "Processing"},
				{ID: "ms-underwriting", MilestoneName: "Underwriting"},
			})

			return
		}

		next(writer, request)
	}
}
