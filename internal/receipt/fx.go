package receipt

import (
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/receipt/service"
)

var Module = fx.Module("receipt.service",
	fx.Provide(service.NewVerifier),
	fx.Provide(service.NewService),
)
