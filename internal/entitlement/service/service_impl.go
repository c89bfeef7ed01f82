package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
)

type Service struct {
	log   *zap.Logger
	store entitlementdomain.Store

	mu    sync.RWMutex
	state entitlementdomain.State
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Store entitlementdomain.Store
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		log:   p.Log.Named("entitlement.service"),
		store: p.Store,
		state: entitlementdomain.DefaultState(),
	}
}

// Warm seeds the in-memory view from the last persisted state. A load
// failure keeps the safe defaults; entitlement is refreshed on the next
// successful verification anyway.
func (s *Service) Warm(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn("load persisted entitlement failed, starting from defaults", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.log.Info("entitlement seeded",
		zap.Bool("is_subscribed", state.IsSubscribed),
		zap.Bool("is_lifetime", state.IsLifetime),
		zap.Int("purchased_products", len(state.PurchasedProductIDs)),
	)
	return nil
}

// Current implements domain.Service.
func (s *Service) Current() entitlementdomain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Replace implements domain.Service. The next state replaces the previous
// one wholesale; products absent from it are dropped. The in-memory view
// is swapped even when persistence fails, it stays authoritative until
// the next successful save.
func (s *Service) Replace(ctx context.Context, next entitlementdomain.State) error {
	next = entitlementdomain.NewState(next.IsSubscribed, next.IsLifetime, next.PurchasedProductIDs)

	saveErr := s.store.Save(ctx, next)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if saveErr != nil {
		s.log.Error("persist entitlement failed", zap.Error(saveErr))
		return fmt.Errorf("%w: %v", entitlementdomain.ErrPersistence, saveErr)
	}
	return nil
}
