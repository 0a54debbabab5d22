package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/internal/http"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// UsersClient implements encompass.UsersClient.
type UsersClient struct {
	httpClient *http.Client
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client) *UsersClient {
	return &UsersClient{
		httpClient: httpClient,
	}
}

// List implements encompass.UsersClient.List.
func (c *UsersClient) List(ctx context.Context, opts *encompass.ListUsersOptions) ([]encompass.UserProfile, error) {
	resp, err := c.httpClient.Get(ctx, constants.PathCompanyUsers, opts.Values())
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	var users []encompass.UserProfile

	err = resp.DecodeJSON(&users)
	if err != nil {
		return nil, fmt.Errorf("parsing users list: %w", err)
	}

	return users, nil
}

// Profile implements encompass.UsersClient.Profile. An empty userID returns
// the profile of the token's user.
func (c *UsersClient) Profile(ctx context.Context, userID string) (*encompass.UserProfile, error) {
	resp, err := c.httpClient.Get(ctx, userPath(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting user profile: %w", err)
	}

	var profile encompass.UserProfile

	err = resp.DecodeJSON(&profile)
	if err != nil {
		return nil, fmt.Errorf("parsing user profile: %w", err)
	}

	return &profile, nil
}

// Licenses implements encompass.UsersClient.Licenses. An empty state returns
// every license.
func (c *UsersClient) Licenses(ctx context.Context, userID, state string) ([]encompass.LicenseInformation, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}

	resp, err := c.httpClient.Get(ctx, userPath(userID)+"/"+constants.SegmentLicenses, query)
	if err != nil {
		return nil, fmt.Errorf("getting user licenses: %w", err)
	}

	var licenses []encompass.LicenseInformation

	err = resp.DecodeJSON(&licenses)
	if err != nil {
		return nil, fmt.Errorf("parsing user licenses: %w", err)
	}

	return licenses, nil
}

func userPath(userID string) string {
	if userID == "" {
		userID = constants.CurrentUserID
	}

	return constants.PathCompanyUsers + "/" + url.PathEscape(userID)
}
