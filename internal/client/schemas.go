package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/internal/http"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// SchemasClient implements encompass.SchemasClient.
type SchemasClient struct {
	httpClient *http.Client
}

// NewSchemasClient creates a new schemas client.
func NewSchemasClient(httpClient *http.Client) *SchemasClient {
	return &SchemasClient{
		httpClient: httpClient,
	}
}

// GenerateContract implements encompass.SchemasClient.GenerateContract.
func (c *SchemasClient) GenerateContract(ctx context.Context, fields interface{}) (map[string]interface{}, error) {
	resp, err := c.httpClient.Post(ctx, constants.PathContractGenerator, fields)
	if err != nil {
		return nil, fmt.Errorf("generating contract: %w", err)
	}

	var contract map[string]interface{}

	err = resp.DecodeJSON(&contract)
	if err != nil {
		return nil, fmt.Errorf("parsing generated contract: %w", err)
	}

	return contract, nil
}

// LoanSchema implements encompass.SchemasClient.LoanSchema.
func (c *SchemasClient) LoanSchema(ctx context.Context, entities []string) (json.RawMessage, error) {
	resp, err := c.httpClient.Get(ctx, constants.PathLoanSchema, encompass.EntitiesValues(entities))
	if err != nil {
		return nil, fmt.Errorf("getting loan schema: %w", err)
	}

	return json.RawMessage(resp.Body), nil
}
