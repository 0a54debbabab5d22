package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoansClient_GUIDByLoanNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rows    []encompass.PipelineRow
		want    string
		wantErr error
	}{
		{name: "found", rows: []encompass.PipelineRow{{LoanGUID: "guid-1"}, {LoanGUID: "guid-2"}}, want: "guid-1"},
		{name: "not found", rows: []encompass.PipelineRow{}, wantErr: encompass.ErrLoanNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
				writeJSON(writer, http.StatusOK, tt.rows)
			})

			client := NewTestClient(t, server.URL)

			guid, err := client.Loans().GUIDByLoanNumber(context.Background(), "2401000123")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, encompass.IsNotFound(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, guid)

			requests := server.Requests()
			require.Len(t, requests, 1)
			assert.Equal(t, "/v1/loanPipeline", requests[0].Path)
			assert.JSONEq(t,
				`{"filter":{"operator":"and","terms":[{"canonicalName":"Loan.LoanNumber","matchType":"exact","value":"2401000123"}]}}`,
				string(requests[0].Body))
		})
	}
}

func TestLoansClient_Get(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]string{"encompassId": "loan-guid"})
	})

	client := NewTestClient(t, server.URL)

	loan, err := client.Loans().Get(context.Background(), "loan-guid", []string{"Loan", "Application"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"encompassId":"loan-guid"}`, string(loan))

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v1/loans/loan-guid", requests[0].Path)
	assert.Equal(t, "entities=Loan%2CApplication", requests[0].RawQuery)

	_, err = client.Loans().Get(context.Background(), "", nil)
	require.ErrorIs(t, err, encompass.ErrEmptyGUID)
}

func TestLoansClient_GetEscapesGUID(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]string{})
	})

	client := NewTestClient(t, server.URL)

	_, err := client.Loans().Get(context.Background(), "{a/b}", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/loans/%7Ba%2Fb%7D", server.Requests()[0].Path)
}

func TestLoansClient_Create(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusCreated, map[string]string{"encompassId": "new-guid"})
	})

	client := NewTestClient(t, server.URL)

	loan, err := client.Loans().Create(context.Background(), &encompass.CreateLoanOptions{LoanFolder: "My Pipeline"},
		map[string]interface{}{"loanAmount": 250000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"encompassId":"new-guid"}`, string(loan))

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/v1/loans", requests[0].Path)
	assert.Equal(t, "loanFolder=My+Pipeline&view=entity", requests[0].RawQuery)
	assert.JSONEq(t, `{"loanAmount":250000}`, string(requests[0].Body))
}

func TestLoansClient_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  *encompass.LoanUpdateOptions
		query string
	}{
		{name: "default options", opts: nil, query: "appendData=false&persistent=transient&view=entity"},
		{
			name:  "custom options",
			opts:  &encompass.LoanUpdateOptions{AppendData: true, Persistent: encompass.PersistentPermanent, View: encompass.ViewID},
			query: "appendData=true&persistent=permanent&view=id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(http.StatusNoContent)
			})

			client := NewTestClient(t, server.URL)

			err := client.Loans().Update(context.Background(), "loan-guid", map[string]string{"loanProgramName": "FHA"}, tt.opts)
			require.NoError(t, err)

			requests := server.Requests()
			require.Len(t, requests, 1)
			assert.Equal(t, http.MethodPatch, requests[0].Method)
			assert.Equal(t, "/v1/loans/loan-guid", requests[0].Path)
			assert.Equal(t, tt.query, requests[0].RawQuery)
			assert.JSONEq(t, `{"loanProgramName":"FHA"}`, string(requests[0].Body))
		})
	}
}

func TestLoansClient_UpdateWithGeneratedContract(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/v1/schema/loan/contractGenerator" {
			writeJSON(writer, http.StatusOK, map[string]interface{}{
				"applications": []map[string]interface{}{{"borrower": map[string]string{"firstName": "Ada"}}},
			})

			return
		}

		writer.WriteHeader(http.StatusNoContent)
	})

	client := NewTestClient(t, server.URL)

	err := client.Loans().UpdateWithGeneratedContract(context.Background(), "loan-guid", &encompass.GeneratedContractUpdate{
		StandardFields: map[string]interface{}{"4000": "Ada"},
		CustomFields:   map[string]interface{}{"CX.SCORE": "720"},
	}, nil)
	require.NoError(t, err)

	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.JSONEq(t, `{"4000":"Ada"}`, string(requests[0].Body))
	assert.Equal(t, "/v1/loans/loan-guid", requests[1].Path)
	assert.JSONEq(t, `{
		"applications": [{"borrower": {"firstName": "Ada"}}],
		"customFields": [{"fieldName": "CX.SCORE", "stringValue": "720", "numericValue": 720}]
	}`, string(requests[1].Body))

	err = client.Loans().UpdateWithGeneratedContract(context.Background(), "loan-guid", nil, nil)
	require.ErrorIs(t, err, encompass.ErrContractRequired)
}

func TestLoansClient_Delete(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/v1/loans/missing" {
			writeJSON(writer, http.StatusNotFound, encompass.APIError{ErrorCode: "EBS-404", Summary: "Not Found"})

			return
		}

		writer.WriteHeader(http.StatusNoContent)
	})

	client := NewTestClient(t, server.URL)

	require.NoError(t, client.Loans().Delete(context.Background(), "loan-guid"))

	err := client.Loans().Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, encompass.IsNotFound(err))
	assert.Contains(t, err.Error(), "deleting loan")

	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodDelete, requests[0].Method)
}

func TestLoansClient_FieldReader(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, []encompass.FieldReaderResult{
			{FieldID: "4000", Value: "Ada"},
			{FieldID: "4002", Value: "Lovelace"},
		})
	})

	client := NewTestClient(t, server.URL)

	results, err := client.Loans().FieldReader(context.Background(), "loan-guid", []string{"4000", "4002"},
		&encompass.FieldReaderOptions{IncludeMetadata: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Ada", results[0].Value)

	values, err := client.Loans().FieldValues(context.Background(), "loan-guid", []string{"4000", "4002"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"4000": "Ada", "4002": "Lovelace"}, values)

	requests := server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, "/v1/loans/loan-guid/fieldReader", requests[0].Path)
	assert.Equal(t, "includeMetadata=true", requests[0].RawQuery)
	assert.JSONEq(t, `["4000","4002"]`, string(requests[0].Body))
	assert.Empty(t, requests[1].RawQuery)
}

func TestLoansClient_MoveToFolder(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	})

	client := NewTestClient(t, server.URL)

	err := client.Loans().MoveToFolder(context.Background(), "loan-guid", "Closed Loans")
	require.NoError(t, err)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPatch, requests[0].Method)
	assert.Equal(t, "/v1/loanfolders/Closed%20Loans/loans", requests[0].Path)
	assert.Equal(t, "action=add", requests[0].RawQuery)
	assert.JSONEq(t, `{"loanGuid":"loan-guid"}`, string(requests[0].Body))

	require.ErrorIs(t, client.Loans().MoveToFolder(context.Background(), "loan-guid", ""), encompass.ErrFolderRequired)
	require.ErrorIs(t, client.Loans().MoveToFolder(context.Background(), "", "x"), encompass.ErrEmptyGUID)
}
