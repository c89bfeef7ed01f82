package finalizer

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("finalizer",
	fx.Provide(New),
	fx.Invoke(runForever),
)

func runForever(lc fx.Lifecycle, f *Finalizer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go f.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
