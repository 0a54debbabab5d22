package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/internal/http"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// LoansClient implements encompass.LoansClient.
type LoansClient struct {
	httpClient *http.Client
	schemas    *SchemasClient
}

// NewLoansClient creates a new loans client.
func NewLoansClient(httpClient *http.Client, schemas *SchemasClient) *LoansClient {
	return &LoansClient{
		httpClient: httpClient,
		schemas:    schemas,
	}
}

// GUIDByLoanNumber implements encompass.LoansClient.GUIDByLoanNumber.
func (c *LoansClient) GUIDByLoanNumber(ctx context.Context, loanNumber string) (string, error) {
	rows, err := viewPipeline(ctx, c.httpClient, encompass.LoanNumberContract(loanNumber), 0)
	if err != nil {
		return "", fmt.Errorf("finding loan %s: %w", loanNumber, err)
	}

	if len(rows) == 0 || rows[0].LoanGUID == "" {
		return "", fmt.Errorf("%w: loan number %s", encompass.ErrLoanNotFound, loanNumber)
	}

	return rows[0].LoanGUID, nil
}

// Get implements encompass.LoansClient.Get.
func (c *LoansClient) Get(ctx context.Context, guid string, entities []string) (json.RawMessage, error) {
	path, err := loanPath(guid)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, encompass.EntitiesValues(entities))
	if err != nil {
		return nil, fmt.Errorf("getting loan: %w", err)
	}

	return json.RawMessage(resp.Body), nil
}

// Create implements encompass.LoansClient.Create.
func (c *LoansClient) Create(ctx context.Context, opts *encompass.CreateLoanOptions, loan interface{}) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   constants.PathLoans,
		Query:  opts.Values(),
		Body:   loan,
	})
	if err != nil {
		return nil, fmt.Errorf("creating loan: %w", err)
	}

	return json.RawMessage(resp.Body), nil
}

// Update implements encompass.LoansClient.Update. A nil opts sends
// appendData=false, persistent=transient and view=entity.
func (c *LoansClient) Update(ctx context.Context, guid string, loanData interface{}, opts *encompass.LoanUpdateOptions) error {
	path, err := loanPath(guid)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPatch,
		Path:   path,
		Query:  opts.Values(),
		Body:   loanData,
	})
	if err != nil {
		return fmt.Errorf("updating loan: %w", err)
	}

	return nil
}

// UpdateWithGeneratedContract implements
// encompass.LoansClient.UpdateWithGeneratedContract. The standard fields are
// turned into a contract by the contract generator before the update.
func (c *LoansClient) UpdateWithGeneratedContract(
	ctx context.Context,
	guid string,
	data *encompass.GeneratedContractUpdate,
	opts *encompass.LoanUpdateOptions,
) error {
	if data == nil {
		return encompass.ErrContractRequired
	}

	if guid == "" {
		return encompass.ErrEmptyGUID
	}

	standardFields := data.StandardFields
	if standardFields == nil {
		standardFields = map[string]interface{}{}
	}

	contract, err := c.schemas.GenerateContract(ctx, standardFields)
	if err != nil {
		return fmt.Errorf("updating loan: %w", err)
	}

	if contract == nil {
		contract = map[string]interface{}{}
	}

	contract["customFields"] = encompass.MassageCustomFields(data.CustomFields)

	return c.Update(ctx, guid, contract, opts)
}

// Delete implements encompass.LoansClient.Delete.
func (c *LoansClient) Delete(ctx context.Context, guid string) error {
	path, err := loanPath(guid)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting loan: %w", err)
	}

	return nil
}

// FieldReader implements encompass.LoansClient.FieldReader.
func (c *LoansClient) FieldReader(
	ctx context.Context,
	guid string,
	fields []string,
	opts *encompass.FieldReaderOptions,
) ([]encompass.FieldReaderResult, error) {
	path, err := loanPath(guid)
	if err != nil {
		return nil, err
	}

	if fields == nil {
		fields = []string{}
	}

	var results []encompass.FieldReaderResult

	_, err = c.httpClient.DoJSON(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   path + "/" + constants.SegmentFieldReader,
		Query:  opts.Values(),
		Body:   fields,
	}, &results)
	if err != nil {
		return nil, fmt.Errorf("reading loan fields: %w", err)
	}

	return results, nil
}

// FieldValues implements encompass.LoansClient.FieldValues.
func (c *LoansClient) FieldValues(ctx context.Context, guid string, fields []string) (map[string]string, error) {
	results, err := c.FieldReader(ctx, guid, fields, nil)
	if err != nil {
		return nil, err
	}

	return encompass.ReduceFieldReaderValues(results), nil
}

// MoveToFolder implements encompass.LoansClient.MoveToFolder.
func (c *LoansClient) MoveToFolder(ctx context.Context, guid, folder string) error {
	if guid == "" {
		return encompass.ErrEmptyGUID
	}

	if folder == "" {
		return encompass.ErrFolderRequired
	}

	_, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPatch,
		Path:   constants.PathLoanFolders + "/" + url.PathEscape(folder) + "/" + constants.SegmentFolderLoans,
		Query:  url.Values{"action": []string{"add"}},
		Body:   map[string]string{"loanGuid": guid},
	})
	if err != nil {
		return fmt.Errorf("moving loan to folder %s: %w", folder, err)
	}

	return nil
}

func loanPath(guid string) (string, error) {
	if guid == "" {
		return "", encompass.ErrEmptyGUID
	}

	return constants.PathLoans + "/" + url.PathEscape(guid), nil
}
