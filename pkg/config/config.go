// Package config loads encompass.Config from YAML files, .env files and the
// environment, and fills credentials from a secrets provider.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/encompass-client/internal/constants"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/fivetwenty-io/encompass-client/pkg/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Static errors for err113 compliance.
var (
	ErrConfigPathRequired = errors.New("config file path is required")
	ErrNoSecretsProvider  = errors.New("no secrets provider configured")
)

// keys lists every config key that can be set from the environment, e.g.
// ENCOMPASS_CLIENT_ID.
var keys = []string{
	"client_id",
	"api_secret",
	"instance_id",
	"username",
	"password",
	"api_version",
	"base_url",
	"auth_base_url",
	"access_token",
	"http_timeout",
	"retry_max",
	"retry_wait_min",
	"retry_wait_max",
	"requests_per_second",
	"burst",
	"user_agent",
	"debug",
	"authenticate_on_init",
}

// Load reads the YAML file at path, when path is not empty, and applies
// ENCOMPASS_* environment variables on top. envFiles are loaded into the
// environment first without overriding variables that are already set.
func Load(path string, envFiles ...string) (*encompass.Config, error) {
	if len(envFiles) > 0 {
		err := godotenv.Load(envFiles...)
		if err != nil {
			return nil, fmt.Errorf("loading env files: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		err := v.BindEnv(key)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("base_url", constants.DefaultBaseURL)
	v.SetDefault("auth_base_url", constants.DefaultAuthBaseURL)
	v.SetDefault("api_version", constants.DefaultAPIVersion)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var config encompass.Config

	err := v.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &config, nil
}

// Save writes config to path as YAML. The API secret, password and access
// token are never written.
func Save(path string, config *encompass.Config) error {
	if path == "" {
		return ErrConfigPathRequired
	}

	if config == nil {
		return encompass.ErrConfigRequired
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve fills empty credential fields of config from the JSON secret
// secretID. Fields that are already set are kept.
func Resolve(ctx context.Context, config *encompass.Config, provider secrets.Provider, secretID string) error {
	if config == nil {
		return encompass.ErrConfigRequired
	}

	if provider == nil {
		return ErrNoSecretsProvider
	}

	secret, err := provider.GetSecret(ctx, secretID)
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}

	if len(secret) == 0 {
		return fmt.Errorf("%w: %s", secrets.ErrSecretNotFound, secretID)
	}

	fillIfEmpty(&config.ClientID, secret[secrets.KeyClientID])
	fillIfEmpty(&config.APISecret, secret[secrets.KeyAPISecret])
	fillIfEmpty(&config.InstanceID, secret[secrets.KeyInstanceID])
	fillIfEmpty(&config.Username, secret[secrets.KeyUsername])
	fillIfEmpty(&config.Password, secret[secrets.KeyPassword])

	return nil
}

func fillIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
