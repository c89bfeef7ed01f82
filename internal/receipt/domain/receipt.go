package domain

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	ErrNoEvidence   = errors.New("receipt_no_evidence")
	ErrVerification = errors.New("receipt_verification_failed")
)

// Item is one in-app purchase entry from a verified receipt.
type Item struct {
	ProductID             string
	TransactionID         string
	OriginalTransactionID string
	PurchaseDate          time.Time
	OriginalPurchaseDate  time.Time
	ExpiresDate           *time.Time
	CancellationDate      *time.Time
}

// Receipt is the parsed result of a successful verification call.
// Token carries the original evidence blob, base64 encoded, for
// purchase telemetry.
type Receipt struct {
	Environment string
	Items       []Item
	Token       string
}

// Verifier calls the remote verification service with the opaque
// evidence blob.
type Verifier interface {
	Verify(ctx context.Context, evidence []byte) (*Receipt, error)
}

// Service reconciles entitlement state against the storefront receipt.
type Service interface {
	Reconcile(ctx context.Context) (*Receipt, error)
}

type OutcomeKind int

const (
	NotPurchased OutcomeKind = iota
	Purchased
	Expired
)

// Outcome is the result of verifying one product or one auto-renewable
// group against a receipt.
type Outcome struct {
	Kind   OutcomeKind
	Items  []Item
	Expiry time.Time
}

// VerifyPurchase checks a single non-consumable product against the
// receipt. Cancelled items do not count.
func VerifyPurchase(r *Receipt, productID string) Outcome {
	var items []Item
	for _, item := range r.Items {
		if item.ProductID != productID || item.CancellationDate != nil {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return Outcome{Kind: NotPurchased}
	}
	return Outcome{Kind: Purchased, Items: items}
}

// VerifySubscriptions checks the configured auto-renewable group against
// the receipt at the given instant. Any item expiring after now makes the
// group Purchased; items that only existed in the past make it Expired.
func VerifySubscriptions(r *Receipt, productIDs []string, now time.Time) Outcome {
	ids := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}

	var items []Item
	for _, item := range r.Items {
		if _, ok := ids[item.ProductID]; !ok {
			continue
		}
		if item.ExpiresDate == nil || item.CancellationDate != nil {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return Outcome{Kind: NotPurchased}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ExpiresDate.After(*items[j].ExpiresDate)
	})
	latest := *items[0].ExpiresDate

	if latest.After(now) {
		var active []Item
		for _, item := range items {
			if item.ExpiresDate.After(now) {
				active = append(active, item)
			}
		}
		return Outcome{Kind: Purchased, Items: active, Expiry: latest}
	}
	return Outcome{Kind: Expired, Items: items, Expiry: latest}
}
