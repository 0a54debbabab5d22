package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/hashicorp/go-retryablehttp"
)

// Manager exchanges credentials for bearer tokens and holds the current one.
type Manager struct {
	credentials *Credentials
	store       *TokenStore
	authBaseURL string
	httpClient  *retryablehttp.Client
	userAgent   string
	logger      encompass.Logger
	metrics     encompass.Metrics
	observer    encompass.AuthObserver
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAuthBaseURL sets the base URL of the OAuth endpoints.
func WithAuthBaseURL(baseURL string) ManagerOption {
	return func(m *Manager) {
		m.authBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the client used for OAuth calls.
func WithHTTPClient(client *retryablehttp.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithUserAgent sets the User-Agent of OAuth calls.
func WithUserAgent(userAgent string) ManagerOption {
	return func(m *Manager) {
		m.userAgent = userAgent
	}
}

// WithLogger sets the logger.
func WithLogger(logger encompass.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics encompass.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithObserver sets the observer notified after each token exchange.
func WithObserver(observer encompass.AuthObserver) ManagerOption {
	return func(m *Manager) {
		m.observer = observer
	}
}

// NewManager creates a token manager for credentials.
func NewManager(credentials *Credentials, opts ...ManagerOption) *Manager {
	manager := &Manager{
		credentials: credentials,
		store:       NewTokenStore(),
		authBaseURL: constants.DefaultAuthBaseURL,
		userAgent:   constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(manager)
	}

	if manager.httpClient == nil {
		manager.httpClient = NewDefaultHTTPClient()
	}

	return manager
}

// NewDefaultHTTPClient returns a retryablehttp client with transport retries
// disabled, so every failure reaches the caller unchanged.
func NewDefaultHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	return client
}

// Credentials returns the credentials the manager authenticates with.
func (m *Manager) Credentials() *Credentials {
	return m.credentials
}

// Token returns the current token, or "".
func (m *Manager) Token() string {
	return m.store.Get()
}

// SetToken replaces the current token. An empty token logs out.
func (m *Manager) SetToken(token string) {
	m.store.Set(token)
}

// CanReauthenticate reports whether a rejected token can be replaced without
// caller involvement.
func (m *Manager) CanReauthenticate() bool {
	return m.credentials.HasUserCredentials()
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Authenticate exchanges a username and password for a token and stores it.
// Empty arguments fall back to the stored credentials. There is no retry.
func (m *Manager) Authenticate(ctx context.Context, username, password string) error {
	form, effectiveUser := m.credentials.passwordGrant(username, password)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.authBaseURL+constants.TokenPath, []byte(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set(constants.HeaderContentType, constants.ContentTypeFormEncoded)
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.authFailed(ctx, effectiveUser, 0, err)

		return fmt.Errorf("requesting token: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		m.authFailed(ctx, effectiveUser, resp.StatusCode, err)

		return fmt.Errorf("reading token response: %w", err)
	}

	var token tokenResponse

	decodeErr := json.Unmarshal(body, &token)

	if token.AccessToken == "" {
		cause := encompass.ErrNoAccessToken
		if decodeErr != nil {
			cause = fmt.Errorf("%w: %w", encompass.ErrNoAccessToken, decodeErr)
		}

		authErr := &encompass.AuthError{
			StatusCode:  resp.StatusCode,
			Reason:      token.Error,
			Description: token.ErrorDescription,
			Err:         cause,
		}
		m.authFailed(ctx, effectiveUser, resp.StatusCode, authErr)

		return authErr
	}

	m.store.Set(token.AccessToken)

	if m.metrics != nil {
		m.metrics.TokenRequested(true)
	}

	if m.logger != nil {
		m.logger.Debug("token acquired", map[string]interface{}{
			"instance_id": m.credentials.InstanceID(),
			"username":    effectiveUser,
			"status":      resp.StatusCode,
		})
	}

	if m.observer != nil {
		m.observer.OnAuthenticated(ctx, m.authEvent(effectiveUser, resp.StatusCode, nil))
	}

	return nil
}

func (m *Manager) authFailed(ctx context.Context, username string, statusCode int, err error) {
	if m.metrics != nil {
		m.metrics.TokenRequested(false)
	}

	if m.logger != nil {
		m.logger.Warn("token request failed", map[string]interface{}{
			"instance_id": m.credentials.InstanceID(),
			"username":    username,
			"status":      statusCode,
			"error":       err.Error(),
		})
	}

	if m.observer != nil {
		m.observer.OnAuthenticationFailed(ctx, m.authEvent(username, statusCode, err))
	}
}

func (m *Manager) authEvent(username string, statusCode int, err error) encompass.AuthEvent {
	event := encompass.AuthEvent{
		InstanceID: m.credentials.InstanceID(),
		Username:   username,
		StatusCode: statusCode,
		Time:       time.Now().UTC(),
	}

	if err != nil {
		event.Error = err.Error()
	}

	return event
}

// Introspect describes token, or the stored token when token is empty.
//
// It returns nil without an error when the token is not active enough for
// the server to answer 200, when the endpoint cannot be reached and when the
// answer cannot be decoded. Cancellation and malformed requests are errors.
func (m *Manager) Introspect(ctx context.Context, token string) (*encompass.TokenIntrospection, error) {
	if token == "" {
		token = m.store.Get()
	}

	req, err := m.newTokenFormRequest(ctx, constants.IntrospectionPath, token)
	if err != nil {
		return nil, fmt.Errorf("introspecting token: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("introspecting token: %w", ctxErr)
		}

		if isTransportError(err) {
			m.debug("token introspection unavailable", map[string]interface{}{"error": err.Error()})

			return nil, nil
		}

		return nil, fmt.Errorf("introspecting token: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		m.debug("token introspection rejected", map[string]interface{}{"status": resp.StatusCode})

		return nil, nil
	}

	var introspection encompass.TokenIntrospection

	err = json.NewDecoder(resp.Body).Decode(&introspection)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("introspecting token: %w", ctxErr)
		}

		m.debug("token introspection unreadable", map[string]interface{}{"error": err.Error()})

		return nil, nil
	}

	return &introspection, nil
}

// Revoke invalidates token, or the stored token when token is empty. The
// stored token is cleared when it is the one revoked.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		token = m.store.Get()
	}

	if token == "" {
		return encompass.ErrTokenRequired
	}

	req, err := m.newTokenFormRequest(ctx, constants.RevocationPath, token)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)

		return &encompass.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Method:     http.MethodPost,
			URL:        m.authBaseURL + constants.RevocationPath,
			Body:       body,
			API:        encompass.ParseAPIError(body),
		}
	}

	m.store.CompareAndClear(token)

	return nil
}

// newTokenFormRequest builds a form post of token to an OAuth endpoint using
// HTTP Basic client authentication.
func (m *Manager) newTokenFormRequest(ctx context.Context, path, token string) (*retryablehttp.Request, error) {
	form := url.Values{}
	form.Set("token", token)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.authBaseURL+path, []byte(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(constants.HeaderContentType, constants.ContentTypeFormEncoded)
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, m.userAgent)
	m.credentials.SetBasicAuth(req.Request)

	return req, nil
}

func (m *Manager) debug(msg string, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.Debug(msg, fields)
	}
}

// isTransportError reports whether err came from the network rather than
// from building the request.
func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
