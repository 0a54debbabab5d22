// Package secrets resolves Encompass credentials from a secrets manager.
package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned when a secret has no usable value.
var ErrSecretNotFound = errors.New("secret not found")

// Provider defines a generic secrets manager interface.
type Provider interface {
	// GetSecret retrieves a secret by key and returns its JSON object as a
	// key-value map.
	GetSecret(ctx context.Context, key string) (map[string]string, error)
}

// Secret keys read by the config resolver.
const (
	KeyClientID   = "client_id"
	KeyAPISecret  = "api_secret"
	KeyInstanceID = "instance_id"
	KeyUsername   = "username"
	KeyPassword   = "password"
)
