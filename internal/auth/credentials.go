package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// Credentials holds the identifiers used to obtain tokens. It is immutable
// after construction and never exposes the API secret or the password.
type Credentials struct {
	clientID   string
	apiSecret  string
	instanceID string
	username   string
	password   string
	apiVersion int
}

// NewCredentials validates the required identifiers. A zero apiVersion
// selects the default version.
func NewCredentials(clientID, apiSecret, instanceID, username, password string, apiVersion int) (*Credentials, error) {
	switch {
	case clientID == "":
		return nil, encompass.ErrClientIDRequired
	case apiSecret == "":
		return nil, encompass.ErrAPISecretRequired
	case instanceID == "":
		return nil, encompass.ErrInstanceIDRequired
	case apiVersion < 0:
		return nil, fmt.Errorf("%w: %d", encompass.ErrInvalidAPIVersion, apiVersion)
	}

	if apiVersion == 0 {
		apiVersion = constants.DefaultAPIVersion
	}

	return &Credentials{
		clientID:   clientID,
		apiSecret:  apiSecret,
		instanceID: instanceID,
		username:   username,
		password:   password,
		apiVersion: apiVersion,
	}, nil
}

// ClientID returns the OAuth client ID.
func (c *Credentials) ClientID() string {
	return c.clientID
}

// InstanceID returns the Encompass instance ID.
func (c *Credentials) InstanceID() string {
	return c.instanceID
}

// Username returns the configured username, or "".
func (c *Credentials) Username() string {
	return c.username
}

// APIVersion returns the resource API version.
func (c *Credentials) APIVersion() int {
	return c.apiVersion
}

// HasUserCredentials reports whether both username and password are set.
// Only such credentials can re-authenticate after a rejected token.
func (c *Credentials) HasUserCredentials() bool {
	return c.username != "" && c.password != ""
}

// SetBasicAuth sets client ID and API secret as HTTP Basic credentials on req.
func (c *Credentials) SetBasicAuth(req *http.Request) {
	req.SetBasicAuth(c.clientID, c.apiSecret)
}

// passwordGrant builds the token request form. Empty overrides fall back to
// the stored username and password.
func (c *Credentials) passwordGrant(username, password string) (url.Values, string) {
	if username == "" {
		username = c.username
	}

	if password == "" {
		password = c.password
	}

	form := url.Values{}
	form.Set("grant_type", constants.GrantTypePassword)
	form.Set("username", fmt.Sprintf(constants.UsernameFormat, username, c.instanceID))
	form.Set("password", password)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.apiSecret)

	return form, username
}
