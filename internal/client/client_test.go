package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		require.ErrorIs(t, err, encompass.ErrConfigRequired)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			mutate func(*encompass.Config)
			want   error
		}{
			{name: "client ID", mutate: func(c *encompass.Config) { c.ClientID = "" }, want: encompass.ErrClientIDRequired},
			{name: "API secret", mutate: func(c *encompass.Config) { c.APISecret = "" }, want: encompass.ErrAPISecretRequired},
			{name: "instance ID", mutate: func(c *encompass.Config) { c.InstanceID = "" }, want: encompass.ErrInstanceIDRequired},
			{name: "negative version", mutate: func(c *encompass.Config) { c.APIVersion = -1 }, want: encompass.ErrInvalidAPIVersion},
		}

		for _, tt := range tests {
			config := testConfig("http://127.0.0.1")
			tt.mutate(config)

			_, err := New(context.Background(), config)
			require.ErrorIs(t, err, tt.want, tt.name)
		}
	})

	t.Run("access token seeds the session", func(t *testing.T) {
		t.Parallel()

		client := NewTestClient(t, "http://127.0.0.1")
		assert.Equal(t, testToken, client.Token())
		assert.NotNil(t, client.Loans())
		assert.NotNil(t, client.Milestones())
		assert.NotNil(t, client.Schemas())
		assert.NotNil(t, client.Users())
	})

	t.Run("authenticate on init", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writeJSON(writer, http.StatusOK, map[string]string{"access_token": "init-token"})
		})

		config := testConfig(server.URL)
		config.AccessToken = ""
		config.Username = "officer"
		config.Password = "secret"
		config.AuthenticateOnInit = true

		client, err := New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, "init-token", client.Token())

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "/oauth2/v1/token", requests[0].Path)
	})

	t.Run("authenticate on init failure", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writeJSON(writer, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		})

		config := testConfig(server.URL)
		config.AccessToken = ""
		config.AuthenticateOnInit = true

		_, err := New(context.Background(), config)
		require.Error(t, err)
		assert.True(t, encompass.IsAuthError(err))
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Request(t *testing.T) {
	t.Parallel()

	t.Run("passes options through and returns the raw response", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("X-Total-Count", "2")
			writeJSON(writer, http.StatusOK, []map[string]string{{"id": "a"}, {"id": "b"}})
		})

		client := NewTestClient(t, server.URL)

		resp, err := client.Request(context.Background(), http.MethodPost, "settings/loan/customFields", &encompass.RequestOptions{
			Query:   url.Values{"start": []string{"10"}},
			Headers: map[string]string{"X-Trace": "abc"},
			Body:    []byte(`{"name":"x"}`),
			Version: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Headers.Get("X-Total-Count"))

		var items []map[string]string
		require.NoError(t, resp.JSON(&items))
		assert.Len(t, items, 2)

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "/v3/settings/loan/customFields", requests[0].Path)
		assert.Equal(t, "start=10", requests[0].RawQuery)
		assert.Equal(t, "abc", requests[0].Header.Get("X-Trace"))
		assert.Equal(t, "Bearer "+testToken, requests[0].Header.Get("Authorization"))
		assert.JSONEq(t, `{"name":"x"}`, string(requests[0].Body))
	})

	t.Run("error keeps the response", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writeJSON(writer, http.StatusConflict, encompass.APIError{ErrorCode: "EBS-1", Summary: "Conflict"})
		})

		client := NewTestClient(t, server.URL)

		resp, err := client.Request(context.Background(), http.MethodDelete, "/businessContacts/1", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, http.StatusConflict, encompass.StatusCode(err))
	})

	t.Run("transport error has no response", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(http.ResponseWriter, *http.Request) {})
		client := NewTestClient(t, server.URL)
		server.Close()

		resp, err := client.Request(context.Background(), http.MethodGet, "/loans", nil)
		require.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestClient_CanonicalNames(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v1/loanPipeline/fieldDefinitions", request.URL.Path)
		writeJSON(writer, http.StatusOK, []map[string]string{{"canonicalName": "Loan.LoanNumber"}})
	})

	client := NewTestClient(t, server.URL)

	names, err := client.CanonicalNames(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"canonicalName":"Loan.LoanNumber"}]`, string(names))
}

func TestClient_ViewPipeline(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, []encompass.PipelineRow{
			{LoanGUID: "guid-1", Fields: map[string]string{"Loan.LoanAmount": "250000"}},
		})
	})

	client := NewTestClient(t, server.URL)

	contract := &encompass.PipelineContract{
		LoanGUIDs: []string{"guid-1"},
		Fields:    []string{"Loan.LoanAmount"},
		SortOrder: []encompass.SortOrder{{CanonicalName: "Loan.LastModified", Order: encompass.SortDescending}},
	}

	rows, err := client.ViewPipeline(context.Background(), contract, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "250000", rows[0].Fields["Loan.LoanAmount"])

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/v1/loanPipeline", requests[0].Path)
	assert.Equal(t, "limit=50", requests[0].RawQuery)

	var sent encompass.PipelineContract
	requests[0].DecodeBody(t, &sent)
	assert.Equal(t, *contract, sent)

	_, err = client.ViewPipeline(context.Background(), nil, 0)
	require.ErrorIs(t, err, encompass.ErrContractRequired)
	assert.Len(t, server.Requests(), 1)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_BatchLoanUpdate(t *testing.T) {
	t.Parallel()

	t.Run("request ID from Location", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			if request.Method == http.MethodPost {
				writer.Header().Set("Location", "https://api.example.com/encompass/v1/loanBatch/updateRequests/req-42")
				writer.WriteHeader(http.StatusAccepted)

				return
			}

			writeJSON(writer, http.StatusOK, encompass.BatchUpdateStatus{Status: "done", LastModified: "2026-01-02T03:04:05Z"})
		})

		client := NewTestClient(t, server.URL)

		update, err := client.BatchLoanUpdate(context.Background(), &encompass.BatchLoanUpdateContract{
			LoanGUIDs: []string{"guid-1", "guid-2"},
			LoanData:  map[string]string{"loanProgramName": "30 Year Fixed"},
		})
		require.NoError(t, err)
		assert.Equal(t, "req-42", update.RequestID())

		status, err := update.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "done", status.Status)

		requests := server.Requests()
		require.Len(t, requests, 2)
		assert.Equal(t, "/v1/loanBatch/updateRequests", requests[0].Path)
		assert.Equal(t, http.MethodGet, requests[1].Method)
		assert.Equal(t, "/v1/loanBatch/updateRequests/req-42", requests[1].Path)
	})

	t.Run("missing Location", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusAccepted)
		})

		client := NewTestClient(t, server.URL)

		_, err := client.BatchLoanUpdate(context.Background(), &encompass.BatchLoanUpdateContract{})
		require.ErrorIs(t, err, encompass.ErrMissingLocation)
	})

	t.Run("nil contract", func(t *testing.T) {
		t.Parallel()

		client := NewTestClient(t, "http://127.0.0.1")

		_, err := client.BatchLoanUpdate(context.Background(), nil)
		require.ErrorIs(t, err, encompass.ErrContractRequired)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_TokenMethods(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/oauth2/v1/token":
			writeJSON(writer, http.StatusOK, map[string]string{"access_token": "fresh-token", "token_type": "Bearer"})
		case "/oauth2/v1/token/introspection":
			writeJSON(writer, http.StatusOK, encompass.TokenIntrospection{Active: true, UserName: "officer"})
		case "/oauth2/v1/token/revocation":
			writer.WriteHeader(http.StatusOK)
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	})

	client := NewTestClient(t, server.URL)

	client.SetToken("")
	assert.Empty(t, client.Token())

	err := client.Authenticate(context.Background(), "officer", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", client.Token())

	introspection, err := client.IntrospectToken(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, introspection)
	assert.True(t, introspection.Active)
	assert.Equal(t, "officer", introspection.UserName)

	err = client.RevokeToken(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, client.Token())

	requests := server.Requests()
	require.Len(t, requests, 3)

	form, err := url.ParseQuery(string(requests[0].Body))
	require.NoError(t, err)
	assert.Equal(t, "officer@encompass:BE11111111", form.Get("username"))

	form, err = url.ParseQuery(string(requests[1].Body))
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", form.Get("token"))
}

func TestClient_ReauthenticatesOnRejectedToken(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/oauth2/v1/token" {
			writeJSON(writer, http.StatusOK, map[string]string{"access_token": "fresh-token"})

			return
		}

		if request.Header.Get("Authorization") != "Bearer fresh-token" {
			writer.WriteHeader(http.StatusUnauthorized)

			return
		}

		writeJSON(writer, http.StatusOK, encompass.UserProfile{ID: "officer"})
	})

	config := testConfig(server.URL)
	config.Username = "officer"
	config.Password = "pw"

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	profile, err := client.Users().Profile(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "officer", profile.ID)

	var paths []string
	for _, request := range server.Requests() {
		paths = append(paths, request.Path)
	}

	assert.Equal(t, []string{"/v1/company/users/me", "/oauth2/v1/token", "/v1/company/users/me"}, paths)
}

func TestLeveledLoggerFields(t *testing.T) {
	t.Parallel()

	fields := toFields([]interface{}{"method", "GET", "retry", 2, "dangling"})
	assert.Equal(t, map[string]interface{}{"method": "GET", "retry": 2}, fields)

	data, err := json.Marshal(toFields(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
