package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	catalogdomain "github.com/bazimogmbh/easypurchase/internal/catalog/domain"
	"github.com/bazimogmbh/easypurchase/internal/config"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
)

type Service struct {
	log   *zap.Logger
	cfg   config.Config
	store storefront.Client
	sink  catalogdomain.ProductSink

	mu           sync.RWMutex
	offers       []catalogdomain.Offer
	defaultOffer *catalogdomain.Offer
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
	Store  storefront.Client
	Sink   catalogdomain.ProductSink `optional:"true"`
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		log:   p.Log.Named("catalog.service"),
		cfg:   p.Config,
		store: p.Store,
		sink:  p.Sink,
	}
}

// Refresh implements domain.Service. Offers are rebuilt only for ids the
// storefront recognizes; a fetch failure keeps the previous offer list.
func (s *Service) Refresh(ctx context.Context) error {
	products, invalidIDs, err := s.store.FetchProducts(ctx, s.cfg.OfferIDs)
	if err != nil {
		s.log.Warn("catalog fetch failed, keeping previous offers", zap.Error(err))
		return fmt.Errorf("%w: %v", catalogdomain.ErrFetch, err)
	}

	for _, id := range invalidIDs {
		s.log.Warn("invalid product identifier", zap.String("product_id", id))
	}
	if len(products) == 0 {
		return nil
	}

	byID := make(map[string]storefront.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	offers := make([]catalogdomain.Offer, 0, len(s.cfg.OfferIDs))
	for _, id := range s.cfg.OfferIDs {
		product, ok := byID[id]
		if !ok {
			continue
		}
		offers = append(offers, catalogdomain.NewOffer(id, &product, id == s.cfg.LifetimeProductID))
	}

	var defaultOffer *catalogdomain.Offer
	for i := range offers {
		if offers[i].ProductID == s.cfg.DefaultOfferID {
			defaultOffer = &offers[i]
			break
		}
	}
	if defaultOffer == nil && len(offers) > 0 {
		defaultOffer = &offers[0]
	}

	s.mu.Lock()
	s.offers = offers
	s.defaultOffer = defaultOffer
	s.mu.Unlock()

	s.log.Info("catalog refreshed",
		zap.Int("offers", len(offers)),
		zap.Int("invalid_ids", len(invalidIDs)),
	)

	if s.sink != nil {
		s.sink.UpdatePurchases(ctx, products)
	}
	return nil
}

// Offers implements domain.Service.
func (s *Service) Offers() []catalogdomain.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalogdomain.Offer, len(s.offers))
	copy(out, s.offers)
	return out
}

// DefaultOffer implements domain.Service.
func (s *Service) DefaultOffer() (catalogdomain.Offer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.defaultOffer == nil {
		return catalogdomain.Offer{}, false
	}
	return *s.defaultOffer, true
}
