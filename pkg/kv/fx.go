package kv

import (
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/config"
)

var Module = fx.Module("kv",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (KV, error) {
	return Open(cfg.Store)
}
