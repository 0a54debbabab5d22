package connect

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/encompass-client/internal/client"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
)

// New creates an Encompass API client. The caller's config is not modified.
func New(ctx context.Context, config *encompass.Config) (encompass.Client, error) {
	if config == nil {
		return nil, encompass.ErrConfigRequired
	}

	normalized := *config

	baseURL, err := normalizeURL(normalized.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	authBaseURL, err := normalizeURL(normalized.AuthBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth base URL: %w", err)
	}

	normalized.BaseURL = baseURL
	normalized.AuthBaseURL = authBaseURL

	// Use the internal client implementation
	encompassClient, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return encompassClient, nil
}

// normalizeURL trims trailing slashes and defaults the scheme to https. An
// empty value stays empty so the client applies its default.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", nil
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", encompass.ErrBaseURLInvalid, err)
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", encompass.ErrBaseURLInvalid, raw)
	}

	return raw, nil
}

// NewWithPassword creates a client that fetches its own tokens and recovers
// from a rejected token by authenticating again.
func NewWithPassword(ctx context.Context, clientID, apiSecret, instanceID, username, password string) (encompass.Client, error) {
	return New(ctx, &encompass.Config{
		ClientID:   clientID,
		APISecret:  apiSecret,
		InstanceID: instanceID,
		Username:   username,
		Password:   password,
	})
}

// NewWithToken creates a client that uses an existing bearer token. A
// rejected token is returned to the caller as an *encompass.AuthError.
func NewWithToken(ctx context.Context, clientID, apiSecret, instanceID, token string) (encompass.Client, error) {
	return New(ctx, &encompass.Config{
		ClientID:    clientID,
		APISecret:   apiSecret,
		InstanceID:  instanceID,
		AccessToken: token,
	})
}
