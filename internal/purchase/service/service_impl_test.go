package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/config"
	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	purchasedomain "github.com/bazimogmbh/easypurchase/internal/purchase/domain"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

type mockReceipts struct {
	receipt *receiptdomain.Receipt
	err     error
	calls   int
}

func (m *mockReceipts) Reconcile(ctx context.Context) (*receiptdomain.Receipt, error) {
	m.calls++
	return m.receipt, m.err
}

type mockEntitlement struct {
	mu       sync.Mutex
	state    entitlementdomain.State
	replaced []entitlementdomain.State
}

func (m *mockEntitlement) Warm(ctx context.Context) error { return nil }

func (m *mockEntitlement) Current() entitlementdomain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockEntitlement) Replace(ctx context.Context, next entitlementdomain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = next
	m.replaced = append(m.replaced, next)
	return nil
}

type mockTracker struct {
	tracked chan storefront.Transaction
}

func newMockTracker() *mockTracker {
	return &mockTracker{tracked: make(chan storefront.Transaction, 1)}
}

func (m *mockTracker) TrackPurchase(ctx context.Context, tx storefront.Transaction, receipt *receiptdomain.Receipt) {
	m.tracked <- tx
}

type fixture struct {
	svc         purchasedomain.Service
	store       *storefront.Fake
	receipts    *mockReceipts
	entitlement *mockEntitlement
	tracker     *mockTracker
}

func newFixture(t *testing.T, cfg config.Config, receipts *mockReceipts) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := storefront.NewFake()
	store.SeedProducts(storefront.Product{ID: "sub.monthly", Title: "Monthly"})

	entitlement := &mockEntitlement{}
	tracker := newMockTracker()

	svc := NewService(ServiceParam{
		Log:         zap.NewNop(),
		Config:      cfg,
		GenID:       node,
		Store:       store,
		Receipts:    receipts,
		Entitlement: entitlement,
		Tracker:     tracker,
	})
	return &fixture{svc: svc, store: store, receipts: receipts, entitlement: entitlement, tracker: tracker}
}

func monthlyReceipt() *receiptdomain.Receipt {
	purchasedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := purchasedAt.Add(30 * 24 * time.Hour)
	return &receiptdomain.Receipt{
		Items: []receiptdomain.Item{{
			ProductID:            "sub.monthly",
			TransactionID:        "tx-1",
			PurchaseDate:         purchasedAt,
			OriginalPurchaseDate: purchasedAt,
			ExpiresDate:          &expiresAt,
		}},
	}
}

func TestPurchaseSucceeded(t *testing.T) {
	f := newFixture(t, config.Config{}, &mockReceipts{receipt: monthlyReceipt()})

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultPurchased, outcome.Result)
	require.Equal(t, "Purchase Succeeded", outcome.Reason)
	require.True(t, outcome.Succeeded())
	require.Equal(t, 1, f.receipts.calls)

	select {
	case tx := <-f.tracker.tracked:
		require.Equal(t, "sub.monthly", tx.ProductID)
	case <-time.After(time.Second):
		t.Fatal("tracker was not notified")
	}
}

func TestPurchaseDeferredIsPending(t *testing.T) {
	f := newFixture(t, config.Config{}, &mockReceipts{})
	f.store.FailBuy("sub.monthly", storefront.ErrDeferred)

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultPending, outcome.Result)
	require.Equal(t, "Your purchase is pending approval", outcome.Reason)
	require.Zero(t, f.receipts.calls)
}

func TestPurchaseCancelled(t *testing.T) {
	f := newFixture(t, config.Config{}, &mockReceipts{})
	f.store.FailBuy("sub.monthly", &storefront.StoreError{Code: storefront.CodeCancelled})

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultFailed, outcome.Result)
	require.Equal(t, "Payment cancelled", outcome.Reason)
}

func TestPurchaseStoreErrorReasons(t *testing.T) {
	for _, tc := range []struct {
		code   storefront.ErrorCode
		reason string
	}{
		{storefront.CodeNotAllowed, "Not allowed to make the payment"},
		{storefront.CodeInvalid, "The purchase identifier was invalid"},
		{storefront.CodeUnavailableInRegion, "The product is not available in the current storefront"},
	} {
		t.Run(string(tc.code), func(t *testing.T) {
			f := newFixture(t, config.Config{}, &mockReceipts{})
			f.store.FailBuy("sub.monthly", &storefront.StoreError{Code: tc.code})

			outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
			require.NoError(t, err)
			require.Equal(t, purchasedomain.ResultFailed, outcome.Result)
			require.Equal(t, tc.reason, outcome.Reason)
		})
	}
}

func TestPurchaseOpaqueStoreFailure(t *testing.T) {
	f := newFixture(t, config.Config{}, &mockReceipts{})
	f.store.FailBuy("sub.monthly", errors.New("socket closed"))

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultFailed, outcome.Result)
	require.Equal(t, "Unknown error. Please contact support", outcome.Reason)
}

func TestPurchaseValidationFailure(t *testing.T) {
	f := newFixture(t, config.Config{}, &mockReceipts{err: receiptdomain.ErrVerification})

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultValidationFailed, outcome.Result)
	require.Equal(t, "Receipt Validation Failed", outcome.Reason)
	require.False(t, outcome.Succeeded())

	// Entitlement is only granted through validation, never by the store alone.
	require.Empty(t, f.entitlement.replaced)
	require.False(t, f.entitlement.Current().IsSubscribed)
}

func TestPurchaseUnverifiedByReceipt(t *testing.T) {
	// The store confirms the buy but the verified receipt carries no item
	// for the product, so the subscription group derives to nothing.
	f := newFixture(t, config.Config{}, &mockReceipts{receipt: &receiptdomain.Receipt{}})

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultValidationFailed, outcome.Result)
	require.Equal(t, "Receipt Validation Failed", outcome.Reason)
	require.Equal(t, 1, f.receipts.calls)

	require.Empty(t, f.entitlement.replaced)
	require.False(t, f.entitlement.Current().IsSubscribed)

	select {
	case <-f.tracker.tracked:
		t.Fatal("tracker notified for an unverified purchase")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPurchaseBypassSkipsStorefront(t *testing.T) {
	cfg := config.Config{
		Environment:            config.EnvSandbox,
		SkipPurchaseValidation: true,
	}
	f := newFixture(t, cfg, &mockReceipts{})
	f.store.FailBuy("sub.monthly", errors.New("must not be called"))

	outcome, err := f.svc.Purchase(context.Background(), "sub.monthly")
	require.NoError(t, err)
	require.Equal(t, purchasedomain.ResultPurchased, outcome.Result)
	require.Zero(t, f.receipts.calls)

	state := f.entitlement.Current()
	require.True(t, state.IsSubscribed)
	require.False(t, state.IsLifetime)
}
