package purchase

import (
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/purchase/service"
)

var Module = fx.Module("purchase.service",
	fx.Provide(service.NewService),
)
