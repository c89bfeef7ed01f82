package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
	restoredomain "github.com/bazimogmbh/easypurchase/internal/restore/domain"
)

type Service struct {
	log      *zap.Logger
	store    storefront.Client
	receipts receiptdomain.Service
	metrics  *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Store    storefront.Client
	Receipts receiptdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) restoredomain.Service {
	return &Service{
		log:      p.Log.Named("restore.service"),
		store:    p.Store,
		receipts: p.Receipts,
		metrics:  p.Metrics,
	}
}

// Restore implements domain.Service. Receipt validation is the source of
// truth: even when the storefront reports restored items, a reconciliation
// without evidence yields a failed outcome.
func (s *Service) Restore(ctx context.Context) (restoredomain.Outcome, error) {
	restored, failed, err := s.store.RestoreAll(ctx)
	if err != nil {
		s.log.Warn("restore call failed", zap.Error(err))
		return s.finish(ctx, restoredomain.Outcome{
			Result: restoredomain.ResultFailed,
			Reason: restoredomain.ReasonRestoreFailed,
		}), nil
	}

	switch {
	case len(restored) > 0:
		if _, err := s.receipts.Reconcile(ctx); err != nil {
			s.log.Warn("restored items could not be validated", zap.Error(err))
			return s.finish(ctx, restoredomain.Outcome{
				Result: restoredomain.ResultFailed,
				Reason: restoredomain.ReasonNothingToRestore,
			}), nil
		}
		s.log.Info("restore succeeded", zap.Int("restored", len(restored)))
		return s.finish(ctx, restoredomain.Outcome{
			Result: restoredomain.ResultRestored,
			Reason: restoredomain.ReasonRestored,
		}), nil

	case len(failed) > 0:
		s.log.Warn("restore failed at the storefront", zap.Int("failed", len(failed)))
		return s.finish(ctx, restoredomain.Outcome{
			Result: restoredomain.ResultFailed,
			Reason: restoredomain.ReasonRestoreFailed,
		}), nil

	default:
		return s.finish(ctx, restoredomain.Outcome{
			Result: restoredomain.ResultFailed,
			Reason: restoredomain.ReasonNothingToRestore,
		}), nil
	}
}

func (s *Service) finish(ctx context.Context, outcome restoredomain.Outcome) restoredomain.Outcome {
	s.metrics.RecordRestoreOutcome(ctx, string(outcome.Result))
	return outcome
}
