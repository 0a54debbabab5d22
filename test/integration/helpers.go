//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/encompass-client/pkg/config"
	"github.com/fivetwenty-io/encompass-client/pkg/connect"
	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/fivetwenty-io/encompass-client/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Client     *encompass.Config
	LoanNumber string
}

// LoadTestConfig loads the client configuration from ENCOMPASS_* variables
// and an optional ENCOMPASS_CONFIG file.
func LoadTestConfig(t *testing.T) *TestConfig {
	t.Helper()

	cfg, err := config.Load(os.Getenv("ENCOMPASS_CONFIG"))
	require.NoError(t, err)

	return &TestConfig{
		Client:     cfg,
		LoanNumber: os.Getenv("ENCOMPASS_TEST_LOAN_NUMBER"),
	}
}

// SkipIfMissingConfig skips the test unless password credentials are set.
func (c *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if c.Client.ClientID == "" || c.Client.APISecret == "" || c.Client.InstanceID == "" {
		t.Skip("ENCOMPASS_CLIENT_ID, ENCOMPASS_API_SECRET or ENCOMPASS_INSTANCE_ID not set, skipping integration test")
	}

	if c.Client.Username == "" || c.Client.Password == "" {
		t.Skip("ENCOMPASS_USERNAME or ENCOMPASS_PASSWORD not set, skipping integration test")
	}
}

// NewClient creates a client that logs through the test log.
func (c *TestConfig) NewClient(t *testing.T) encompass.Client {
	t.Helper()

	cfg := *c.Client
	cfg.Logger = logger.NewAdapter(zaptest.NewLogger(t))

	client, err := connect.New(Context(t), &cfg)
	require.NoError(t, err)

	return client
}

// Context returns a context that is cancelled when the test ends or after a
// minute.
func Context(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	return ctx
}
