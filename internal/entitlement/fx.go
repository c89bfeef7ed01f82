package entitlement

import (
	"context"

	"go.uber.org/fx"

	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/internal/entitlement/repository"
	"github.com/bazimogmbh/easypurchase/internal/entitlement/service"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(warmOnStart),
)

func warmOnStart(lc fx.Lifecycle, svc entitlementdomain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Warm(ctx)
		},
	})
}
