package restore

import (
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/restore/service"
)

var Module = fx.Module("restore.service",
	fx.Provide(service.NewService),
)
