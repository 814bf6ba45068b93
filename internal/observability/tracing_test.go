package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guildmanager/internal/config"
)

func TestSetupTracing_NoopWhenDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), config.TelemetryConfig{Endpoint: "http://192.0.2.1:4318"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupTracing_ProviderShutsDownCleanly(t *testing.T) {
	// Non-routable collector: nothing is exported, shutdown still flushes.
	shutdown, err := SetupTracing(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "guildmanager-test",
		Endpoint:    "http://192.0.2.1:4318",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
