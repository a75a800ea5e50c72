package telemetry

import (
	"context"

	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// SetupTracing points the global OpenTelemetry providers at Uptrace. Without
// a DSN the providers stay no-op and spans cost nothing. The returned function
// flushes pending spans.
func SetupTracing(cfg *config.Uptrace, service string, logger *zap.Logger) func(context.Context) error {
	if cfg.DSN == "" {
		logger.Debug("Trace export disabled")
		return func(context.Context) error { return nil }
	}

	opts := []uptrace.Option{
		uptrace.WithDSN(cfg.DSN),
		uptrace.WithServiceName(service),
	}
	if cfg.Environment != "" {
		opts = append(opts, uptrace.WithDeploymentEnvironment(cfg.Environment))
	}

	uptrace.ConfigureOpentelemetry(opts...)
	logger.Info("Exporting traces to Uptrace", zap.String("service", service))

	return uptrace.Shutdown
}
