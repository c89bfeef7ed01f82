package domain

import (
	"context"

	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

type Result string

const (
	ResultPurchased        Result = "purchased"
	ResultPending          Result = "pending"
	ResultFailed           Result = "failed"
	ResultValidationFailed Result = "validation_failed"
)

// Outcome is the terminal result of one purchase attempt.
type Outcome struct {
	Result Result `json:"result"`
	Reason string `json:"reason,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.Result == ResultPurchased
}

// Service drives a purchase attempt from request to terminal outcome.
type Service interface {
	Purchase(ctx context.Context, productID string) (Outcome, error)
}

// Tracker receives confirmed purchases for analytics. Calls are
// fire-and-forget and never influence the purchase outcome.
type Tracker interface {
	TrackPurchase(ctx context.Context, tx storefront.Transaction, receipt *receiptdomain.Receipt)
}
