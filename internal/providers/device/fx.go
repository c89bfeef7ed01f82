package device

import (
	"github.com/bazimogmbh/easypurchase/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.device",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (InfoProvider, ConsentProvider, AttributionTokenProvider) {
	p := NewStatic(cfg)
	return p, p, p
}
