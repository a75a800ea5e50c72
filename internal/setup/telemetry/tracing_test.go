package telemetry_test

import (
	"context"
	"testing"

	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/peechi-bot/peechi/internal/setup/telemetry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupTracingWithoutDSN(t *testing.T) {
	t.Parallel()

	shutdown := telemetry.SetupTracing(&config.Uptrace{}, "peechi-test", zap.NewNop())
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
