package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
	restoredomain "github.com/bazimogmbh/easypurchase/internal/restore/domain"
)

type mockReceipts struct {
	err   error
	calls int
}

func (m *mockReceipts) Reconcile(ctx context.Context) (*receiptdomain.Receipt, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &receiptdomain.Receipt{}, nil
}

type brokenStore struct {
	*storefront.Fake
}

func (b *brokenStore) RestoreAll(ctx context.Context) ([]storefront.Transaction, []storefront.Transaction, error) {
	return nil, nil, errors.New("payment queue unavailable")
}

func newService(store storefront.Client, receipts receiptdomain.Service) restoredomain.Service {
	return NewService(ServiceParam{
		Log:      zap.NewNop(),
		Store:    store,
		Receipts: receipts,
	})
}

func TestRestoreSucceeds(t *testing.T) {
	store := storefront.NewFake()
	store.SetRestoreResult([]storefront.Transaction{{ID: "tx-1", ProductID: "sub.monthly", State: storefront.StateRestored}}, nil)
	receipts := &mockReceipts{}

	outcome, err := newService(store, receipts).Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredomain.ResultRestored, outcome.Result)
	require.Equal(t, restoredomain.ReasonRestored, outcome.Reason)
	require.Equal(t, 1, receipts.calls)
}

func TestRestoreValidationFailure(t *testing.T) {
	store := storefront.NewFake()
	store.SetRestoreResult([]storefront.Transaction{{ID: "tx-1", State: storefront.StateRestored}}, nil)
	receipts := &mockReceipts{err: receiptdomain.ErrNoEvidence}

	outcome, err := newService(store, receipts).Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredomain.ResultFailed, outcome.Result)
	require.Equal(t, restoredomain.ReasonNothingToRestore, outcome.Reason)
}

func TestRestoreStorefrontFailures(t *testing.T) {
	store := storefront.NewFake()
	store.SetRestoreResult(nil, []storefront.Transaction{{ID: "tx-1", State: storefront.StateFailed}})
	receipts := &mockReceipts{}

	outcome, err := newService(store, receipts).Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredomain.ResultFailed, outcome.Result)
	require.Equal(t, restoredomain.ReasonRestoreFailed, outcome.Reason)
	require.Zero(t, receipts.calls)
}

func TestRestoreCallError(t *testing.T) {
	store := &brokenStore{Fake: storefront.NewFake()}
	receipts := &mockReceipts{}

	outcome, err := newService(store, receipts).Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredomain.ResultFailed, outcome.Result)
	require.Equal(t, restoredomain.ReasonRestoreFailed, outcome.Reason)
	require.Zero(t, receipts.calls)
}

func TestRestoreNothingToRestore(t *testing.T) {
	store := storefront.NewFake()
	receipts := &mockReceipts{}

	outcome, err := newService(store, receipts).Restore(context.Background())
	require.NoError(t, err)
	require.Equal(t, restoredomain.ResultFailed, outcome.Result)
	require.Equal(t, restoredomain.ReasonNothingToRestore, outcome.Reason)
	require.Zero(t, receipts.calls)
}
