package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/config"
	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	purchasedomain "github.com/bazimogmbh/easypurchase/internal/purchase/domain"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

const (
	reasonSucceeded        = "Purchase Succeeded"
	reasonPendingApproval  = "Your purchase is pending approval"
	reasonValidationFailed = "Receipt Validation Failed"
)

type Service struct {
	log   *zap.Logger
	cfg   config.Config
	genID *snowflake.Node

	store       storefront.Client
	receipts    receiptdomain.Service
	entitlement entitlementdomain.Service
	tracker     purchasedomain.Tracker
	metrics     *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	GenID  *snowflake.Node

	Store       storefront.Client
	Receipts    receiptdomain.Service
	Entitlement entitlementdomain.Service
	Tracker     purchasedomain.Tracker `optional:"true"`
	Metrics     *metrics.Metrics       `optional:"true"`
}

func NewService(p ServiceParam) purchasedomain.Service {
	return &Service{
		log:         p.Log.Named("purchase.service"),
		cfg:         p.Config,
		genID:       p.GenID,
		store:       p.Store,
		receipts:    p.Receipts,
		entitlement: p.Entitlement,
		tracker:     p.Tracker,
		metrics:     p.Metrics,
	}
}

// Purchase implements domain.Service.
func (s *Service) Purchase(ctx context.Context, productID string) (purchasedomain.Outcome, error) {
	log := s.log.With(zap.String("product_id", productID))
	log.Info("purchasing product")

	if s.cfg.SkipPurchaseValidation && !s.cfg.IsProduction() {
		return s.bypass(ctx)
	}

	attempt := purchasedomain.NewAttempt(s.genID.Generate(), productID)
	if err := attempt.Request(); err != nil {
		return purchasedomain.Outcome{}, err
	}

	tx, err := s.store.Buy(ctx, productID, 1)
	if err != nil {
		return s.storeFailure(ctx, attempt, log, err)
	}

	if err := attempt.MarkStoreSuccess(); err != nil {
		return purchasedomain.Outcome{}, err
	}
	if err := attempt.BeginValidation(); err != nil {
		return purchasedomain.Outcome{}, err
	}

	receipt, err := s.receipts.Reconcile(ctx)
	if err != nil {
		if err := attempt.MarkValidationFailed(); err != nil {
			return purchasedomain.Outcome{}, err
		}
		log.Warn("storefront confirmed the purchase but validation could not", zap.Error(err))
		return s.finish(ctx, purchasedomain.Outcome{
			Result: purchasedomain.ResultValidationFailed,
			Reason: reasonValidationFailed,
		}), nil
	}

	// The verifier answering is not enough: the receipt must carry the
	// purchased product, otherwise the store confirmed something the
	// entitlement derivation never saw.
	if verified := receiptdomain.VerifyPurchase(receipt, productID); verified.Kind != receiptdomain.Purchased {
		if err := attempt.MarkValidationFailed(); err != nil {
			return purchasedomain.Outcome{}, err
		}
		log.Warn("receipt carries no evidence for the purchased product")
		return s.finish(ctx, purchasedomain.Outcome{
			Result: purchasedomain.ResultValidationFailed,
			Reason: reasonValidationFailed,
		}), nil
	}

	if err := attempt.MarkPurchased(); err != nil {
		return purchasedomain.Outcome{}, err
	}

	if s.tracker != nil {
		go s.tracker.TrackPurchase(context.WithoutCancel(ctx), tx, receipt)
	}

	return s.finish(ctx, purchasedomain.Outcome{
		Result: purchasedomain.ResultPurchased,
		Reason: reasonSucceeded,
	}), nil
}

func (s *Service) storeFailure(ctx context.Context, attempt *purchasedomain.Attempt, log *zap.Logger, cause error) (purchasedomain.Outcome, error) {
	if errors.Is(cause, storefront.ErrDeferred) {
		if err := attempt.MarkStoreDeferred(); err != nil {
			return purchasedomain.Outcome{}, err
		}
		return s.finish(ctx, purchasedomain.Outcome{
			Result: purchasedomain.ResultPending,
			Reason: reasonPendingApproval,
		}), nil
	}

	var storeErr *storefront.StoreError
	if !errors.As(cause, &storeErr) {
		storeErr = &storefront.StoreError{Code: storefront.CodeUnknown}
	}

	var markErr error
	if storeErr.Code == storefront.CodeCancelled {
		markErr = attempt.MarkStoreCancelled()
	} else {
		markErr = attempt.MarkStoreError()
	}
	if markErr != nil {
		return purchasedomain.Outcome{}, markErr
	}

	log.Warn("storefront rejected the purchase",
		zap.String("code", string(storeErr.Code)),
		zap.Error(cause),
	)
	return s.finish(ctx, purchasedomain.Outcome{
		Result: purchasedomain.ResultFailed,
		Reason: storeErr.Reason(),
	}), nil
}

// bypass writes an always-subscribed entitlement without contacting the
// store. Only reachable outside production builds.
func (s *Service) bypass(ctx context.Context) (purchasedomain.Outcome, error) {
	s.log.Warn("purchase validation bypass enabled, skipping storefront")
	if err := s.entitlement.Replace(ctx, entitlementdomain.NewState(true, false, nil)); err != nil {
		return purchasedomain.Outcome{}, err
	}
	return s.finish(ctx, purchasedomain.Outcome{
		Result: purchasedomain.ResultPurchased,
		Reason: reasonSucceeded,
	}), nil
}

func (s *Service) finish(ctx context.Context, outcome purchasedomain.Outcome) purchasedomain.Outcome {
	s.metrics.RecordPurchaseOutcome(ctx, string(outcome.Result))
	return outcome
}
