package encompass

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is the error body returned by the Encompass API.
type APIError struct {
	ErrorCode string `json:"errorCode" yaml:"errorCode"`
	Summary   string `json:"summary"   yaml:"summary"`
	Details   string `json:"details"   yaml:"details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s (code: %s)", e.Summary, e.ErrorCode)
	}

	return fmt.Sprintf("%s: %s (code: %s)", e.Summary, e.Details, e.ErrorCode)
}

// HTTPError is returned for any 4xx or 5xx response other than 401. It is
// never retried.
type HTTPError struct {
	StatusCode int
	// Status is the status text, e.g. "404 Not Found".
	Status string
	Method string
	URL    string
	Body   []byte
	// API is the decoded error body when the server sent one.
	API *APIError
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.API != nil && e.API.Summary != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.API.Summary)
	}

	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// Unwrap exposes the decoded API error.
func (e *HTTPError) Unwrap() error {
	if e.API == nil {
		return nil
	}

	return e.API
}

// AuthError means a token could not be obtained or the API kept rejecting it.
type AuthError struct {
	// StatusCode of the response that failed, 0 when none was received.
	StatusCode int
	// Retried is true when the failure came from the re-authenticated attempt.
	Retried bool
	// Reason is the OAuth error code, when one was returned.
	Reason      string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := "authentication failed"

	switch {
	case e.StatusCode == http.StatusUnauthorized && e.Retried:
		msg = "token invalid, unable to get an updated one"
	case e.StatusCode == http.StatusUnauthorized:
		msg = "token invalid"
	}

	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}

	if e.Description != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Description)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// MilestoneNotFoundError is returned when no milestone on a loan has the requested name.
type MilestoneNotFoundError struct {
	LoanGUID  string
	Milestone string
}

// Error implements the error interface.
func (e *MilestoneNotFoundError) Error() string {
	return fmt.Sprintf("no milestone found for loan %s matching name %q", e.LoanGUID, e.Milestone)
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrClientIDRequired   = errors.New("client ID is required")
	ErrAPISecretRequired  = errors.New("API secret is required")
	ErrInstanceIDRequired = errors.New("instance ID is required")
	ErrInvalidAPIVersion  = errors.New("API version must be positive")
	ErrNoAccessToken      = errors.New("token response did not include an access token")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrMissingLocation    = errors.New("response did not include a Location header")
	ErrEmptyGUID          = errors.New("loan GUID is required")
	ErrInvalidAction      = errors.New("milestone action must be finish or unfinish")
	ErrOptionsRequired    = errors.New("options are required")
	ErrContractRequired   = errors.New("contract is required")
	ErrFolderRequired     = errors.New("loan folder is required")
	ErrTokenRequired      = errors.New("no token to revoke")
	ErrBaseURLInvalid     = errors.New("base URL must be an absolute http or https URL")
)

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	authErr := &AuthError{}

	return errors.As(err, &authErr)
}

// IsNotFound checks if the error is a 404 response or a failed lookup.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrLoanNotFound) {
		return true
	}

	milestoneErr := &MilestoneNotFoundError{}
	if errors.As(err, &milestoneErr) {
		return true
	}

	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	authErr := &AuthError{}
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}

	return 0
}

// ParseAPIError parses an error body from JSON. It returns nil when the body
// is not an Encompass error document.
func ParseAPIError(data []byte) *APIError {
	if len(data) == 0 {
		return nil
	}

	var apiErr APIError

	err := json.Unmarshal(data, &apiErr)
	if err != nil || (apiErr.Summary == "" && apiErr.ErrorCode == "") {
		return nil
	}

	return &apiErr
}
