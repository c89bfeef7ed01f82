package telemetry

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/config"
	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
)

var Module = fx.Module("providers.telemetry",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) Client {
	return NewHTTP(cfg.TelemetryBaseURL, logger, m)
}
