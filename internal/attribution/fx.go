package attribution

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	catalogdomain "github.com/bazimogmbh/easypurchase/internal/catalog/domain"
	"github.com/bazimogmbh/easypurchase/internal/config"
	purchasedomain "github.com/bazimogmbh/easypurchase/internal/purchase/domain"
)

var Module = fx.Module("attribution",
	fx.Provide(NewFlags),
	fx.Provide(provideExchange),
	fx.Provide(NewPipeline),
	fx.Provide(asProductSink),
	fx.Provide(asPurchaseTracker),
	fx.Invoke(activateOnStart),
)

func provideExchange(cfg config.Config, logger *zap.Logger) ExchangeClient {
	return NewExchangeClient(cfg.AttributionExchangeURL, logger)
}

func asProductSink(p *Pipeline) catalogdomain.ProductSink {
	return p
}

func asPurchaseTracker(p *Pipeline) purchasedomain.Tracker {
	return p
}

// activateOnStart is the process analog of the application-foreground
// event that triggers the configure flow.
func activateOnStart(lc fx.Lifecycle, p *Pipeline) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go p.HandleActivation(context.WithoutCancel(ctx))
			return nil
		},
	})
}
