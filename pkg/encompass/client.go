package encompass

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// LoansClient exposes the loan endpoints.
type LoansClient interface {
	GUIDByLoanNumber(ctx context.Context, loanNumber string) (string, error)
	Get(ctx context.Context, guid string, entities []string) (json.RawMessage, error)
	Create(ctx context.Context, opts *CreateLoanOptions, loan interface{}) (json.RawMessage, error)
	Update(ctx context.Context, guid string, loanData interface{}, opts *LoanUpdateOptions) error
	UpdateWithGeneratedContract(ctx context.Context, guid string, data *GeneratedContractUpdate, opts *LoanUpdateOptions) error
	Delete(ctx context.Context, guid string) error
	FieldReader(ctx context.Context, guid string, fields []string, opts *FieldReaderOptions) ([]FieldReaderResult, error)
	FieldValues(ctx context.Context, guid string, fields []string) (map[string]string, error)
	MoveToFolder(ctx context.Context, guid, folder string) error
}

// MilestonesClient exposes the loan milestone endpoints.
type MilestonesClient interface {
	List(ctx context.Context, loanGUID string) ([]Milestone, error)
	Assign(ctx context.Context, opts *AssignMilestoneOptions) error
	Update(ctx context.Context, opts *UpdateMilestoneOptions) error
	Associate(ctx context.Context, loanGUID, milestone string) (json.RawMessage, error)
}

// SchemasClient exposes the loan schema endpoints.
type SchemasClient interface {
	GenerateContract(ctx context.Context, fields interface{}) (map[string]interface{}, error)
	LoanSchema(ctx context.Context, entities []string) (json.RawMessage, error)
}

// UsersClient exposes the company user endpoints.
type UsersClient interface {
	List(ctx context.Context, opts *ListUsersOptions) ([]UserProfile, error)
	Profile(ctx context.Context, userID string) (*UserProfile, error)
	Licenses(ctx context.Context, userID, state string) ([]LicenseInformation, error)
}

// ResourceClients provides access to the resource-specific clients.
type ResourceClients interface {
	Loans() LoansClient
	Milestones() MilestonesClient
	Schemas() SchemasClient
	Users() UsersClient
}

// TokenClient manages the bearer token held by a client.
type TokenClient interface {
	// SetToken replaces the stored token. An empty string logs the client out.
	SetToken(token string)
	// Token returns the stored token, or "" when none is held.
	Token() string
	// Authenticate exchanges credentials for a token and stores it. Empty
	// arguments fall back to the configured username and password.
	Authenticate(ctx context.Context, username, password string) error
	// IntrospectToken returns nil without an error when the token is not
	// valid or the introspection endpoint could not be reached.
	IntrospectToken(ctx context.Context, token string) (*TokenIntrospection, error)
	RevokeToken(ctx context.Context, token string) error
}

// PipelineClient exposes pipeline and batch endpoints.
type PipelineClient interface {
	CanonicalNames(ctx context.Context) (json.RawMessage, error)
	ViewPipeline(ctx context.Context, contract *PipelineContract, limit int) ([]PipelineRow, error)
	BatchLoanUpdate(ctx context.Context, contract *BatchLoanUpdateContract) (*BatchUpdate, error)
}

type Client interface {
	ResourceClients
	TokenClient
	PipelineClient

	// Request sends an authenticated request to any API path and returns the
	// raw response without decoding it.
	Request(ctx context.Context, method, path string, opts *RequestOptions) (*RawResponse, error)
}

// RequestOptions configures a generic Request call.
type RequestOptions struct {
	Query   map[string][]string
	Headers map[string]string
	// Body is JSON encoded unless it is a []byte, which is sent as is.
	Body interface{}
	// Version overrides the configured API version for this call.
	Version int
}

// RawResponse is an undecoded API response.
type RawResponse struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// JSON decodes the response body into out.
func (r *RawResponse) JSON(out interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}

	return json.Unmarshal(r.Body, out)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Metrics receives counters from the request executor.
type Metrics interface {
	ObserveRequest(method string, statusCode int, duration time.Duration)
	TokenRequested(success bool)
	AuthRetried()
}

// AuthEvent describes the outcome of a token exchange. It never carries the token.
type AuthEvent struct {
	InstanceID string
	Username   string
	StatusCode int
	Error      string
	Time       time.Time
}

// AuthObserver is notified after every token exchange.
type AuthObserver interface {
	OnAuthenticated(ctx context.Context, event AuthEvent)
	OnAuthenticationFailed(ctx context.Context, event AuthEvent)
}

// Config represents client configuration for building an encompass.Client.
//
// # Authentication
//
// ClientID, APISecret and InstanceID are always required. When Username and
// Password are both set the client fetches tokens on demand and recovers once
// from a rejected token by re-authenticating. Without them the client relies on
// AccessToken (or a later SetToken call) and a 401 is returned to the caller.
//
// # Timeouts and retries
//
// Per-request timeouts should be controlled with the context passed to client
// methods. RetryMax enables transport-level retries for 5xx, 429 and
// connection errors; it is zero by default so transport failures surface
// unchanged.
type Config struct {
	ClientID   string `mapstructure:"client_id"   yaml:"client_id"`
	APISecret  string `mapstructure:"api_secret"  yaml:"-"`
	InstanceID string `mapstructure:"instance_id" yaml:"instance_id"`
	Username   string `mapstructure:"username"    yaml:"username,omitempty"`
	Password   string `mapstructure:"password"    yaml:"-"`
	// APIVersion selects the "/v{n}" path prefix. Defaults to 1.
	APIVersion int `mapstructure:"api_version" yaml:"api_version,omitempty"`

	// BaseURL of the resource API. Defaults to https://api.elliemae.com/encompass.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// AuthBaseURL of the OAuth endpoints. Defaults to https://api.elliemae.com.
	AuthBaseURL string `mapstructure:"auth_base_url" yaml:"auth_base_url,omitempty"`
	// AccessToken seeds the session with an existing bearer token.
	AccessToken string `mapstructure:"access_token" yaml:"-"`

	HTTPTimeout  time.Duration `mapstructure:"http_timeout"   yaml:"http_timeout,omitempty"`
	RetryMax     int           `mapstructure:"retry_max"      yaml:"retry_max,omitempty"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min" yaml:"retry_wait_min,omitempty"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max" yaml:"retry_wait_max,omitempty"`
	// RequestsPerSecond enables client-side rate limiting of resource calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second,omitempty"`
	Burst             int     `mapstructure:"burst"               yaml:"burst,omitempty"`
	UserAgent         string  `mapstructure:"user_agent"          yaml:"user_agent,omitempty"`
	// Debug enables request/response logging when a Logger is provided.
	Debug bool `mapstructure:"debug" yaml:"debug,omitempty"`
	// AuthenticateOnInit fetches a token while the client is built instead of
	// on the first request.
	AuthenticateOnInit bool `mapstructure:"authenticate_on_init" yaml:"authenticate_on_init,omitempty"`

	Logger       Logger       `mapstructure:"-" yaml:"-"`
	Metrics      Metrics      `mapstructure:"-" yaml:"-"`
	AuthObserver AuthObserver `mapstructure:"-" yaml:"-"`
	HTTPClient   *http.Client `mapstructure:"-" yaml:"-"`
}
