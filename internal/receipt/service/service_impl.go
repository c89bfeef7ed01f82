package service

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/clock"
	"github.com/bazimogmbh/easypurchase/internal/config"
	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/internal/observability/metrics"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

type Service struct {
	log         *zap.Logger
	cfg         config.Config
	clock       clock.Clock
	store       storefront.Client
	verifier    receiptdomain.Verifier
	entitlement entitlementdomain.Service
	metrics     *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Clock       clock.Clock
	Store       storefront.Client
	Verifier    receiptdomain.Verifier
	Entitlement entitlementdomain.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) receiptdomain.Service {
	return &Service{
		log:         p.Log.Named("receipt.service"),
		cfg:         p.Config,
		clock:       p.Clock,
		store:       p.Store,
		verifier:    p.Verifier,
		entitlement: p.Entitlement,
		metrics:     p.Metrics,
	}
}

// Reconcile implements domain.Service. It fetches receipt evidence from
// the storefront, verifies it remotely and derives the new entitlement
// state, replacing the previous one. On missing evidence or a failed
// verification call the entitlement state is left untouched.
func (s *Service) Reconcile(ctx context.Context) (*receiptdomain.Receipt, error) {
	evidence, err := s.store.ReceiptEvidence(ctx)
	if err != nil || len(evidence) == 0 {
		s.log.Warn("receipt evidence unavailable", zap.Error(err))
		s.metrics.RecordReceiptVerification(ctx, "no_evidence")
		return nil, receiptdomain.ErrNoEvidence
	}

	receipt, err := s.verifier.Verify(ctx, evidence)
	if err != nil {
		s.log.Warn("receipt verification failed", zap.Error(err))
		s.metrics.RecordReceiptVerification(ctx, "verification_failed")
		return nil, fmt.Errorf("%w: %v", receiptdomain.ErrVerification, err)
	}

	subscribed, lifetime, productIDs := s.derive(receipt)

	if err := s.entitlement.Replace(ctx, entitlementdomain.NewState(subscribed, lifetime, productIDs)); err != nil {
		// In-memory state is already swapped and stays authoritative.
		s.log.Error("entitlement persist after verification failed", zap.Error(err))
	}

	s.metrics.RecordReceiptVerification(ctx, "verified")
	return receipt, nil
}

func (s *Service) derive(receipt *receiptdomain.Receipt) (subscribed, lifetime bool, productIDs []string) {
	if s.cfg.LifetimeProductID != "" {
		outcome := receiptdomain.VerifyPurchase(receipt, s.cfg.LifetimeProductID)
		if outcome.Kind == receiptdomain.Purchased {
			subscribed = true
			lifetime = true
			for _, item := range outcome.Items {
				productIDs = append(productIDs, item.ProductID)
			}
		} else {
			s.log.Debug("lifetime product not purchased")
		}
	}

	group := receiptdomain.VerifySubscriptions(receipt, s.cfg.AllProductIDs, s.clock.Now())
	switch group.Kind {
	case receiptdomain.Purchased:
		subscribed = true
		for _, item := range group.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		s.log.Info("subscription group valid", zap.Time("expiry", group.Expiry))
	case receiptdomain.Expired:
		s.log.Info("subscription group expired", zap.Time("expiry", group.Expiry))
	case receiptdomain.NotPurchased:
		s.log.Debug("subscription group not purchased")
	}

	return subscribed, lifetime, productIDs
}
