package catalog

import (
	"context"

	"go.uber.org/fx"

	catalogdomain "github.com/bazimogmbh/easypurchase/internal/catalog/domain"
	"github.com/bazimogmbh/easypurchase/internal/catalog/service"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.NewService),
	fx.Invoke(refreshOnStart),
)

func refreshOnStart(lc fx.Lifecycle, svc catalogdomain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Fetch failures keep the previous offers and never block startup.
			_ = svc.Refresh(ctx)
			return nil
		},
	})
}
