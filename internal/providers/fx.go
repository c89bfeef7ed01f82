package providers

import (
	"go.uber.org/fx"

	"github.com/bazimogmbh/easypurchase/internal/providers/device"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	"github.com/bazimogmbh/easypurchase/internal/providers/telemetry"
)

var Module = fx.Module("providers",
	storefront.Module,
	device.Module,
	telemetry.Module,
)
