package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/encompass-client/internal/auth"
	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/internal/http"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/hashicorp/go-retryablehttp"
)

// Client implements the encompass.Client interface.
type Client struct {
	httpClient *http.Client
	manager    *auth.Manager
	logger     encompass.Logger

	// Resource clients
	loans      *LoansClient
	milestones *MilestonesClient
	schemas    *SchemasClient
	users      *UsersClient
}

// createTransport builds the retryable client for resource calls and a
// second one, sharing the same connections, for OAuth calls. Only the
// resource client retries.
func createTransport(config *encompass.Config) (*retryablehttp.Client, *retryablehttp.Client) {
	resource := http.NewRetryableClient()

	if config.HTTPClient != nil {
		resource.HTTPClient = config.HTTPClient
	} else if config.HTTPTimeout > 0 {
		resource.HTTPClient.Timeout = config.HTTPTimeout
	}

	if config.Logger != nil && config.Debug {
		resource.Logger = &leveledLogger{logger: config.Logger}
	}

	token := auth.NewDefaultHTTPClient()
	token.HTTPClient = resource.HTTPClient

	return resource, token
}

// createManagerOptions builds token manager options from config.
func createManagerOptions(config *encompass.Config, transport *retryablehttp.Client) []auth.ManagerOption {
	managerOpts := []auth.ManagerOption{
		auth.WithHTTPClient(transport),
		auth.WithAuthBaseURL(valueOr(config.AuthBaseURL, constants.DefaultAuthBaseURL)),
	}

	if config.UserAgent != "" {
		managerOpts = append(managerOpts, auth.WithUserAgent(config.UserAgent))
	}

	if config.Logger != nil {
		managerOpts = append(managerOpts, auth.WithLogger(config.Logger))
	}

	if config.Metrics != nil {
		managerOpts = append(managerOpts, auth.WithMetrics(config.Metrics))
	}

	if config.AuthObserver != nil {
		managerOpts = append(managerOpts, auth.WithObserver(config.AuthObserver))
	}

	return managerOpts
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *encompass.Config, credentials *auth.Credentials, transport *retryablehttp.Client) []http.Option {
	httpOpts := []http.Option{
		http.WithRetryableClient(transport),
		http.WithAPIVersion(credentials.APIVersion()),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.Metrics != nil {
		httpOpts = append(httpOpts, http.WithMetrics(config.Metrics))
	}

	if config.RequestsPerSecond > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RequestsPerSecond, config.Burst))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates an Encompass client from config. No request is sent unless
// config.AuthenticateOnInit is set.
func New(ctx context.Context, config *encompass.Config) (*Client, error) {
	if config == nil {
		return nil, encompass.ErrConfigRequired
	}

	credentials, err := auth.NewCredentials(
		config.ClientID,
		config.APISecret,
		config.InstanceID,
		config.Username,
		config.Password,
		config.APIVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	resourceTransport, tokenTransport := createTransport(config)

	manager := auth.NewManager(credentials, createManagerOptions(config, tokenTransport)...)
	if config.AccessToken != "" {
		manager.SetToken(config.AccessToken)
	}

	httpClient := http.NewClient(
		valueOr(config.BaseURL, constants.DefaultBaseURL),
		manager,
		createHTTPClientOptions(config, credentials, resourceTransport)...,
	)

	client := &Client{
		httpClient: httpClient,
		manager:    manager,
		logger:     config.Logger,
	}

	client.initializeResourceClients()

	if config.AuthenticateOnInit && manager.Token() == "" {
		err = manager.Authenticate(ctx, "", "")
		if err != nil {
			return nil, fmt.Errorf("authenticating: %w", err)
		}
	}

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.schemas = NewSchemasClient(c.httpClient)
	c.loans = NewLoansClient(c.httpClient, c.schemas)
	c.milestones = NewMilestonesClient(c.httpClient)
	c.users = NewUsersClient(c.httpClient)
}

// Loans implements encompass.Client.Loans.
func (c *Client) Loans() encompass.LoansClient {
	return c.loans
}

// Milestones implements encompass.Client.Milestones.
func (c *Client) Milestones() encompass.MilestonesClient {
	return c.milestones
}

// Schemas implements encompass.Client.Schemas.
func (c *Client) Schemas() encompass.SchemasClient {
	return c.schemas
}

// Users implements encompass.Client.Users.
func (c *Client) Users() encompass.UsersClient {
	return c.users
}

// SetToken implements encompass.Client.SetToken.
func (c *Client) SetToken(token string) {
	c.manager.SetToken(token)
}

// Token implements encompass.Client.Token.
func (c *Client) Token() string {
	return c.manager.Token()
}

// Authenticate implements encompass.Client.Authenticate.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	return c.manager.Authenticate(ctx, username, password)
}

// IntrospectToken implements encompass.Client.IntrospectToken.
func (c *Client) IntrospectToken(ctx context.Context, token string) (*encompass.TokenIntrospection, error) {
	return c.manager.Introspect(ctx, token)
}

// RevokeToken implements encompass.Client.RevokeToken.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	return c.manager.Revoke(ctx, token)
}

// Request implements encompass.Client.Request. A path without a leading
// slash is treated as relative to the versioned base URL.
func (c *Client) Request(ctx context.Context, method, path string, opts *encompass.RequestOptions) (*encompass.RawResponse, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req := &http.Request{Method: method, Path: path}
	if opts != nil {
		req.Query = url.Values(opts.Query)
		req.Headers = opts.Headers
		req.Body = opts.Body
		req.Version = opts.Version
	}

	resp, err := c.httpClient.Do(ctx, req)

	raw := toRawResponse(resp)
	if err != nil {
		return raw, fmt.Errorf("requesting %s %s: %w", req.Method, path, err)
	}

	return raw, nil
}

// CanonicalNames implements encompass.Client.CanonicalNames.
func (c *Client) CanonicalNames(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.httpClient.Get(ctx, constants.PathFieldDefinitions, nil)
	if err != nil {
		return nil, fmt.Errorf("getting canonical names: %w", err)
	}

	return json.RawMessage(resp.Body), nil
}

// ViewPipeline implements encompass.Client.ViewPipeline.
func (c *Client) ViewPipeline(ctx context.Context, contract *encompass.PipelineContract, limit int) ([]encompass.PipelineRow, error) {
	return viewPipeline(ctx, c.httpClient, contract, limit)
}

// BatchLoanUpdate implements encompass.Client.BatchLoanUpdate.
func (c *Client) BatchLoanUpdate(ctx context.Context, contract *encompass.BatchLoanUpdateContract) (*encompass.BatchUpdate, error) {
	if contract == nil {
		return nil, encompass.ErrContractRequired
	}

	resp, err := c.httpClient.Post(ctx, constants.PathBatchUpdates, contract)
	if err != nil {
		return nil, fmt.Errorf("submitting batch update: %w", err)
	}

	requestID, err := encompass.RequestIDFromLocation(resp.Location())
	if err != nil {
		return nil, fmt.Errorf("submitting batch update: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("batch update submitted", map[string]interface{}{
			"request_id": requestID,
			"loans":      len(contract.LoanGUIDs),
		})
	}

	return encompass.NewBatchUpdate(requestID, c.batchUpdateStatus), nil
}

func (c *Client) batchUpdateStatus(ctx context.Context, requestID string) (*encompass.BatchUpdateStatus, error) {
	var status encompass.BatchUpdateStatus

	_, err := c.httpClient.DoJSON(ctx, &http.Request{
		Method: nethttp.MethodGet,
		Path:   constants.PathBatchUpdates + "/" + url.PathEscape(requestID),
	}, &status)
	if err != nil {
		return nil, fmt.Errorf("getting batch update status: %w", err)
	}

	return &status, nil
}

func viewPipeline(ctx context.Context, httpClient *http.Client, contract *encompass.PipelineContract, limit int) ([]encompass.PipelineRow, error) {
	if contract == nil {
		return nil, encompass.ErrContractRequired
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var rows []encompass.PipelineRow

	_, err := httpClient.DoJSON(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   constants.PathLoanPipeline,
		Query:  query,
		Body:   contract,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("viewing pipeline: %w", err)
	}

	return rows, nil
}

func toRawResponse(resp *http.Response) *encompass.RawResponse {
	if resp == nil {
		return nil
	}

	return &encompass.RawResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

// leveledLogger adapts encompass.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger encompass.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
