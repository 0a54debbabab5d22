package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// TokenManager provides the bearer token attached to each request.
type TokenManager interface {
	Token() string
	SetToken(token string)
	Authenticate(ctx context.Context, username, password string) error
	// CanReauthenticate reports whether a rejected token may be replaced and
	// the request retried.
	CanReauthenticate() bool
}

// errAuthFailure marks a 401 response inside the executor. It never reaches callers.
var errAuthFailure = errors.New("token rejected")

type attemptState int

const (
	attemptFirst attemptState = iota
	attemptRetry
)

func (s attemptState) String() string {
	if s == attemptRetry {
		return "retry"
	}

	return "first"
}

// Client executes authenticated requests against the versioned API.
type Client struct {
	baseURL      string
	apiVersion   int
	tokenManager TokenManager
	httpClient   *retryablehttp.Client
	limiter      *rate.Limiter
	logger       encompass.Logger
	metrics      encompass.Metrics
	userAgent    string
	debug        bool
}

// Request is one API call. Path is relative to the versioned base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	// Version overrides the client's API version when positive.
	Version int
}

// Response is a successful or classified API response.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// DecodeJSON decodes the body into out. An empty body leaves out untouched.
func (r *Response) DecodeJSON(out interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}

	err := json.Unmarshal(r.Body, out)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Location returns the Location header.
func (r *Response) Location() string {
	return r.Headers.Get(constants.HeaderLocation)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger encompass.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIVersion sets the default "/v{n}" path prefix.
func WithAPIVersion(version int) Option {
	return func(c *Client) {
		if version > 0 {
			c.apiVersion = version
		}
	}
}

// WithRetryConfig enables transport retries of 429, 5xx and connection
// errors. 401 responses are never retried by the transport.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// WithRetryableClient replaces the retryablehttp client, e.g. to share it
// with the token manager.
func WithRetryableClient(client *retryablehttp.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTransportLogger sets the logger of the retryablehttp client. It accepts
// a retryablehttp.Logger or retryablehttp.LeveledLogger.
func WithTransportLogger(logger interface{}) Option {
	return func(c *Client) {
		c.httpClient.Logger = logger
	}
}

// WithRateLimit waits for a token bucket before each request.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil

			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics encompass.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewRetryableClient returns a retryablehttp client that does not retry and
// passes responses and transport errors through unchanged.
func NewRetryableClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.RetryWaitMin = constants.DefaultRetryWaitMin
	client.RetryWaitMax = constants.DefaultRetryWaitMax
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	return client
}

// NewClient creates an executor for baseURL. A nil tokenManager sends
// requests without an Authorization header.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiVersion:   constants.DefaultAPIVersion,
		tokenManager: tokenManager,
		httpClient:   NewRetryableClient(),
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes req. On a 401 from a client that can re-authenticate, the
// token is dropped, a new one is fetched and the request is sent once more.
// A second 401, or a 401 without credentials, is returned as an
// *encompass.AuthError. Other 4xx and 5xx responses are returned together
// with an *encompass.HTTPError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, constants.ErrNilRequest
	}

	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("%w: %q", constants.ErrPathRequired, req.Path)
	}

	callID := uuid.NewString()

	var resp *Response

	for state := attemptFirst; state <= attemptRetry; state++ {
		retryEligible := state == attemptFirst && c.canReauthenticate()

		var err error

		resp, err = c.attempt(ctx, req, callID, state)
		if !errors.Is(err, errAuthFailure) {
			return resp, err
		}

		if !retryEligible {
			return resp, &encompass.AuthError{
				StatusCode: http.StatusUnauthorized,
				Retried:    state == attemptRetry,
			}
		}

		c.tokenManager.SetToken("")

		if c.logger != nil {
			c.logger.Warn("token rejected, re-authenticating", map[string]interface{}{
				"method":  req.Method,
				"path":    req.Path,
				"call_id": callID,
			})
		}

		if c.metrics != nil {
			c.metrics.AuthRetried()
		}
	}

	return resp, &encompass.AuthError{StatusCode: http.StatusUnauthorized, Retried: true}
}

// DoJSON executes req and decodes a successful body into out.
func (c *Client) DoJSON(ctx context.Context, req *Request, out interface{}) (*Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return resp, err
	}

	if out != nil {
		err = resp.DecodeJSON(out)
		if err != nil {
			return resp, err
		}
	}

	return resp, nil
}

func (c *Client) canReauthenticate() bool {
	return c.tokenManager != nil && c.tokenManager.CanReauthenticate()
}

func (c *Client) attempt(ctx context.Context, req *Request, callID string, state attemptState) (*Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     httpReq.URL.String(),
			"attempt": state.String(),
			"call_id": callID,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", req.Method, req.Path, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.ObserveRequest(req.Method, httpResp.StatusCode, duration)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": duration.String(),
			"attempt":  state.String(),
			"call_id":  callID,
		})
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       body,
	}

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized:
		return resp, errAuthFailure
	case httpResp.StatusCode >= http.StatusBadRequest:
		return resp, &encompass.HTTPError{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Method:     req.Method,
			URL:        httpReq.URL.String(),
			Body:       body,
			API:        encompass.ParseAPIError(body),
		}
	}

	return resp, nil
}

// ensureToken fetches a token when none is stored. Failures are returned as is.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", nil
	}

	token := c.tokenManager.Token()
	if token != "" {
		return token, nil
	}

	err := c.tokenManager.Authenticate(ctx, "", "")
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}

	return c.tokenManager.Token(), nil
}

func (c *Client) newRequest(ctx context.Context, req *Request, token string) (*retryablehttp.Request, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, c.buildURL(req), rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.tokenManager != nil {
		httpReq.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	if httpReq.Header.Get(constants.HeaderAccept) == "" {
		httpReq.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	}

	if body != nil && httpReq.Header.Get(constants.HeaderContentType) == "" {
		httpReq.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}

	if c.userAgent != "" {
		httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)
	}

	return httpReq, nil
}

func (c *Client) buildURL(req *Request) string {
	version := c.apiVersion
	if req.Version > 0 {
		version = req.Version
	}

	fullURL := c.baseURL + "/v" + strconv.Itoa(version) + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	return fullURL
}

// encodeBody returns nil for no body, raw bytes unchanged and JSON for
// anything else.
func encodeBody(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
