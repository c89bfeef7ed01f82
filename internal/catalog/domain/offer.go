package domain

import (
	"errors"
	"fmt"

	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
)

var ErrFetch = errors.New("catalog_fetch_failed")

// Offer is a purchasable product id paired with its priced catalog data.
// Identity is the product id; the struct is immutable once built.
type Offer struct {
	ProductID  string
	Product    *storefront.Product
	IsLifetime bool
}

func NewOffer(productID string, product *storefront.Product, isLifetime bool) Offer {
	return Offer{ProductID: productID, Product: product, IsLifetime: isLifetime}
}

// Dummy is a placeholder offer shown before catalog resolution completes.
func Dummy(productID string) Offer {
	return Offer{ProductID: productID}
}

// Period renders the subscription period, or "lifetime" for products
// without one. Empty before catalog resolution.
func (o Offer) Period() string {
	if o.Product == nil {
		return ""
	}
	return localizePeriod(o.Product.Period)
}

// LocalizedPrice is the storefront-formatted price string.
func (o Offer) LocalizedPrice() string {
	if o.Product == nil {
		return ""
	}
	return o.Product.LocalizedPrice
}

// Price returns the numeric price when the catalog entry is resolved.
func (o Offer) Price() (float64, bool) {
	if o.Product == nil {
		return 0, false
	}
	return o.Product.Price, true
}

// TrialPeriod renders the introductory offer period, if any.
func (o Offer) TrialPeriod() (string, bool) {
	if o.Product == nil || o.Product.Introductory == nil {
		return "", false
	}
	return localizePeriod(&o.Product.Introductory.Period), true
}

// TrialPeriodUnits is the unit count of the introductory period.
func (o Offer) TrialPeriodUnits() (int, bool) {
	if o.Product == nil || o.Product.Introductory == nil {
		return 0, false
	}
	return o.Product.Introductory.Period.Count, true
}

func (o Offer) days() (int, bool) {
	if o.Product == nil || o.Product.Period == nil {
		return 0, false
	}
	perUnit, ok := o.Product.Period.Unit.Days()
	if !ok {
		return 0, false
	}
	return o.Product.Period.Count * perUnit, true
}

// DiscountTo returns the percentage saved per day against a base offer.
func (o Offer) DiscountTo(base Offer) (int, bool) {
	selfDays, ok := o.days()
	if !ok {
		return 0, false
	}
	baseDays, ok := base.days()
	if !ok {
		return 0, false
	}
	selfPrice, ok := o.Price()
	if !ok {
		return 0, false
	}
	basePrice, ok := base.Price()
	if !ok || basePrice == 0 {
		return 0, false
	}

	discount := 1.0 - (selfPrice/float64(selfDays))/(basePrice/float64(baseDays))
	return int(discount * 100.0), true
}

func localizePeriod(p *storefront.Period) string {
	if p == nil {
		return "lifetime"
	}
	switch p.Unit {
	case storefront.PeriodDay:
		return fmt.Sprintf("%d days", p.Count)
	case storefront.PeriodWeek:
		return fmt.Sprintf("%d weeks", p.Count)
	case storefront.PeriodMonth:
		return fmt.Sprintf("%d months", p.Count)
	case storefront.PeriodYear:
		return fmt.Sprintf("%d years", p.Count)
	default:
		return "lifetime"
	}
}
