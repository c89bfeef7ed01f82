package finalizer

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
)

// Finalizer drains the payment queue, acknowledging terminal transactions
// exactly once so the storefront stops re-presenting them.
type Finalizer struct {
	log     *zap.Logger
	store   storefront.Client
	metrics *metrics.Metrics
}

type Param struct {
	fx.In

	Log     *zap.Logger
	Store   storefront.Client
	Metrics *metrics.Metrics `optional:"true"`
}

func New(p Param) *Finalizer {
	return &Finalizer{
		log:     p.Log.Named("finalizer"),
		store:   p.Store,
		metrics: p.Metrics,
	}
}

// RunForever consumes the transaction update stream until ctx is done.
func (f *Finalizer) RunForever(ctx context.Context) {
	updates := f.store.Transactions()
	for {
		select {
		case <-ctx.Done():
			return
		case tx, ok := <-updates:
			if !ok {
				return
			}
			f.Handle(ctx, tx)
		}
	}
}

// Handle acknowledges one payment queue entry. Only terminal states that
// still need finishing are touched; acknowledging twice is a swallowed
// no-op, so replays are safe.
func (f *Finalizer) Handle(ctx context.Context, tx storefront.Transaction) {
	if !tx.State.Terminal() || !tx.NeedsFinish {
		return
	}

	if err := f.store.Finalize(ctx, tx); err != nil {
		if errors.Is(err, storefront.ErrAlreadyFinalized) {
			return
		}
		f.log.Warn("finalize transaction failed",
			zap.String("transaction_id", tx.ID),
			zap.String("product_id", tx.ProductID),
			zap.Error(err),
		)
		return
	}

	f.metrics.RecordTransactionFinalized(ctx)
	f.log.Info("transaction finalized",
		zap.String("transaction_id", tx.ID),
		zap.String("product_id", tx.ProductID),
		zap.String("state", string(tx.State)),
	)
}
