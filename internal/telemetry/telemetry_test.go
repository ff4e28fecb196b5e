package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv(EndpointEnv, "")
	t.Setenv(EnabledEnv, "")

	shutdown, err := Setup(context.Background(), "vaudio-bridge-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	t.Setenv(EndpointEnv, "http://localhost:4318")
	t.Setenv(EnabledEnv, "FALSE")

	shutdown, err := Setup(context.Background(), "vaudio-bridge-test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_ProviderWithEndpoint(t *testing.T) {
	// non-routable, nothing is exported before shutdown
	t.Setenv(EndpointEnv, "http://192.0.2.1:4318")
	t.Setenv(EnabledEnv, "")

	shutdown, err := Setup(context.Background(), "vaudio-bridge-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
