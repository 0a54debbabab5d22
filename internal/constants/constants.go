package constants

import "time"

// Default endpoints.
const (
	// DefaultBaseURL is the base of every resource request.
	DefaultBaseURL = "https://api.elliemae.com/encompass"

	// DefaultAuthBaseURL is the base of the OAuth endpoints.
	DefaultAuthBaseURL = "https://api.elliemae.com"

	// DefaultAPIVersion selects the "/v1" path prefix.
	DefaultAPIVersion = 1
)

// OAuth endpoints, relative to the auth base URL.
const (
	TokenPath         = "/oauth2/v1/token"
	IntrospectionPath = "/oauth2/v1/token/introspection"
	RevocationPath    = "/oauth2/v1/token/revocation"

	// GrantTypePassword is the only grant the client requests.
	GrantTypePassword = "password"

	// UsernameFormat builds the password grant username from a user and an instance ID.
	UsernameFormat = "%s@encompass:%s"
)

// Resource paths, relative to the versioned base URL.
const (
	PathFieldDefinitions  = "/loanPipeline/fieldDefinitions"
	PathLoanPipeline      = "/loanPipeline"
	PathBatchUpdates      = "/loanBatch/updateRequests"
	PathLoans             = "/loans"
	PathLoanFolders       = "/loanfolders"
	PathContractGenerator = "/schema/loan/contractGenerator"
	PathLoanSchema        = "/schema/loan"
	PathCompanyUsers      = "/company/users"
	CurrentUserID         = "me"
	SegmentMilestones     = "milestones"
	SegmentAssociates     = "associates"
	SegmentFieldReader    = "fieldReader"
	SegmentLicenses       = "licenses"
	SegmentFolderLoans    = "loans"
)

// Headers and content types.
const (
	HeaderLocation         = "Location"
	HeaderAuthorization    = "Authorization"
	HeaderAccept           = "Accept"
	HeaderContentType      = "Content-Type"
	HeaderUserAgent        = "User-Agent"
	ContentTypeJSON        = "application/json"
	ContentTypeFormEncoded = "application/x-www-form-urlencoded"
)

// HTTP defaults.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between transport retries.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "encompass-go-client/1.0.0"

)

// Configuration file defaults.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// EnvPrefix prefixes environment variables read by the config loader.
	EnvPrefix = "ENCOMPASS"
)
