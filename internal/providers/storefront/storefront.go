package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoReceipt        = errors.New("no_receipt_evidence")
	ErrDeferred         = errors.New("purchase_deferred")
	ErrAlreadyFinalized = errors.New("transaction_already_finalized")
)

// PeriodUnit is the calendar unit of a subscription period.
type PeriodUnit string

const (
	PeriodDay   PeriodUnit = "day"
	PeriodWeek  PeriodUnit = "week"
	PeriodMonth PeriodUnit = "month"
	PeriodYear  PeriodUnit = "year"
)

// Days returns the number of days one unit spans.
func (u PeriodUnit) Days() (int, bool) {
	switch u {
	case PeriodDay:
		return 1, true
	case PeriodWeek:
		return 7, true
	case PeriodMonth:
		return 30, true
	case PeriodYear:
		return 365, true
	default:
		return 0, false
	}
}

type Period struct {
	Unit  PeriodUnit `json:"unit"`
	Count int        `json:"count"`
}

// Duration returns the period length as wall-clock time.
func (p Period) Duration() (time.Duration, bool) {
	days, ok := p.Unit.Days()
	if !ok {
		return 0, false
	}
	return time.Duration(p.Count*days) * 24 * time.Hour, true
}

type IntroductoryOffer struct {
	Price  float64 `json:"price"`
	Period Period  `json:"period"`
}

// Product is a catalog entry as the storefront describes it.
type Product struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Price          float64            `json:"price"`
	Currency       string             `json:"currency"`
	LocalizedPrice string             `json:"localized_price"`
	Period         *Period            `json:"period,omitempty"`
	Introductory   *IntroductoryOffer `json:"introductory,omitempty"`
}

type TransactionState string

const (
	StatePurchasing TransactionState = "purchasing"
	StatePurchased  TransactionState = "purchased"
	StateRestored   TransactionState = "restored"
	StateFailed     TransactionState = "failed"
	StateDeferred   TransactionState = "deferred"
)

// Terminal reports whether the state requires acknowledgement.
func (s TransactionState) Terminal() bool {
	return s == StatePurchased || s == StateRestored
}

// Transaction is one entry from the storefront payment queue.
type Transaction struct {
	ID                 string
	ProductID          string
	State              TransactionState
	NeedsFinish        bool
	PurchasedAt        time.Time
	OriginalPurchaseAt time.Time
}

// ErrorCode is the fixed taxonomy of storefront failure codes.
type ErrorCode string

const (
	CodeUnknown              ErrorCode = "unknown"
	CodeNotAllowed           ErrorCode = "not_allowed"
	CodeCancelled            ErrorCode = "cancelled"
	CodeInvalid              ErrorCode = "invalid"
	CodeNotAllowedOnDevice   ErrorCode = "not_allowed_on_device"
	CodeUnavailableInRegion  ErrorCode = "unavailable_in_storefront"
	CodeCloudPermission      ErrorCode = "cloud_permission_denied"
	CodeCloudNetworkFailure  ErrorCode = "cloud_network_failure"
	CodeCloudServiceRevoked  ErrorCode = "cloud_revoked"
	CodeOther                ErrorCode = "other"
)

// StoreError is a buy or restore failure reported by the storefront.
type StoreError struct {
	Code    ErrorCode
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storefront: %s", e.Code)
}

// Reason maps the error code to its caller-facing text.
func (e *StoreError) Reason() string {
	switch e.Code {
	case CodeUnknown:
		return "Unknown error. Please contact support"
	case CodeNotAllowed:
		return "Not allowed to make the payment"
	case CodeCancelled:
		return "Payment cancelled"
	case CodeInvalid:
		return "The purchase identifier was invalid"
	case CodeNotAllowedOnDevice:
		return "The device is not allowed to make the payment"
	case CodeUnavailableInRegion:
		return "The product is not available in the current storefront"
	case CodeCloudPermission:
		return "Access to cloud service information is not allowed"
	case CodeCloudNetworkFailure:
		return "Could not connect to the network"
	case CodeCloudServiceRevoked:
		return "User has revoked permission to use this cloud service"
	default:
		return e.Message
	}
}

// Client is the storefront collaborator. Buy returns ErrDeferred when the
// payment is pending external approval and *StoreError on failure; a nil
// error means the storefront charged and recorded the transaction.
type Client interface {
	FetchProducts(ctx context.Context, ids []string) (products []Product, invalidIDs []string, err error)
	Buy(ctx context.Context, productID string, quantity int) (Transaction, error)
	RestoreAll(ctx context.Context) (restored []Transaction, failed []Transaction, err error)
	ReceiptEvidence(ctx context.Context) ([]byte, error)
	Transactions() <-chan Transaction
	Finalize(ctx context.Context, tx Transaction) error
}
