package domain

import (
	"context"

	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
)

// Service resolves configured product ids into displayable offers.
type Service interface {
	Refresh(ctx context.Context) error
	Offers() []Offer
	DefaultOffer() (Offer, bool)
}

// ProductSink receives every successfully fetched catalog. Used for
// first-run backfill price and expiry reconstruction.
type ProductSink interface {
	UpdatePurchases(ctx context.Context, products []storefront.Product)
}
