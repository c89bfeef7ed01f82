package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazimogmbh/easypurchase/internal/clock"
	"github.com/bazimogmbh/easypurchase/internal/config"
	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	entitlementservice "github.com/bazimogmbh/easypurchase/internal/entitlement/service"
	"github.com/bazimogmbh/easypurchase/internal/providers/storefront"
	receiptdomain "github.com/bazimogmbh/easypurchase/internal/receipt/domain"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Manual Mocks

type memStore struct {
	state *entitlementdomain.State
}

func (m *memStore) Load(ctx context.Context) (entitlementdomain.State, error) {
	if m.state == nil {
		return entitlementdomain.DefaultState(), nil
	}
	return *m.state, nil
}

func (m *memStore) Save(ctx context.Context, state entitlementdomain.State) error {
	m.state = &state
	return nil
}

type mockVerifier struct {
	receipt *receiptdomain.Receipt
	err     error
	calls   int
}

func (m *mockVerifier) Verify(ctx context.Context, evidence []byte) (*receiptdomain.Receipt, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

func testConfig() config.Config {
	return config.Config{
		LifetimeProductID: "unlock.lifetime",
		AllProductIDs:     []string{"unlock.lifetime", "sub.monthly", "sub.yearly"},
	}
}

func newFixture(verifier receiptdomain.Verifier, evidence []byte) (receiptdomain.Service, entitlementdomain.Service) {
	fake := storefront.NewFake()
	fake.SetEvidence(evidence)

	entitlements := entitlementservice.NewService(entitlementservice.ServiceParam{
		Log:   zap.NewNop(),
		Store: &memStore{},
	})

	svc := NewService(ServiceParam{
		Log:         zap.NewNop(),
		Config:      testConfig(),
		Clock:       clock.NewFakeClock(now),
		Store:       fake,
		Verifier:    verifier,
		Entitlement: entitlements,
	})
	return svc, entitlements
}

func expiry(t time.Time) *time.Time { return &t }

func TestReconcileNoEvidence(t *testing.T) {
	verifier := &mockVerifier{}
	svc, entitlements := newFixture(verifier, nil)

	require.NoError(t, entitlements.Replace(context.Background(), entitlementdomain.NewState(true, false, []string{"sub.monthly"})))
	before := entitlements.Current()

	_, err := svc.Reconcile(context.Background())
	require.ErrorIs(t, err, receiptdomain.ErrNoEvidence)
	require.Equal(t, 0, verifier.calls)
	require.Equal(t, before, entitlements.Current())
}

func TestReconcileVerificationFailureLeavesStateUntouched(t *testing.T) {
	verifier := &mockVerifier{err: errors.New("timeout")}
	svc, entitlements := newFixture(verifier, []byte("evidence"))

	require.NoError(t, entitlements.Replace(context.Background(), entitlementdomain.NewState(true, false, []string{"sub.monthly"})))
	before := entitlements.Current()

	_, err := svc.Reconcile(context.Background())
	require.ErrorIs(t, err, receiptdomain.ErrVerification)
	require.Equal(t, before, entitlements.Current())
}

func TestReconcileDerivesLifetimeAndSubscription(t *testing.T) {
	verifier := &mockVerifier{receipt: &receiptdomain.Receipt{Items: []receiptdomain.Item{
		{ProductID: "unlock.lifetime", TransactionID: "t1", PurchaseDate: now.Add(-time.Hour)},
		{ProductID: "sub.monthly", TransactionID: "t2", ExpiresDate: expiry(now.Add(24 * time.Hour))},
	}}}
	svc, entitlements := newFixture(verifier, []byte("evidence"))

	receipt, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, receipt)

	state := entitlements.Current()
	require.True(t, state.IsSubscribed)
	require.True(t, state.IsLifetime)
	require.ElementsMatch(t, []string{"unlock.lifetime", "sub.monthly"}, state.PurchasedProductIDs)
}

func TestReconcileExpiredGroupGrantsNothing(t *testing.T) {
	verifier := &mockVerifier{receipt: &receiptdomain.Receipt{Items: []receiptdomain.Item{
		{ProductID: "sub.monthly", ExpiresDate: expiry(now.Add(-time.Hour))},
	}}}
	svc, entitlements := newFixture(verifier, []byte("evidence"))

	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	state := entitlements.Current()
	require.False(t, state.IsSubscribed)
	require.Empty(t, state.PurchasedProductIDs)
}

func TestReconcileReplacesPreviousState(t *testing.T) {
	verifier := &mockVerifier{receipt: &receiptdomain.Receipt{Items: []receiptdomain.Item{
		{ProductID: "sub.yearly", ExpiresDate: expiry(now.Add(24 * time.Hour))},
	}}}
	svc, entitlements := newFixture(verifier, []byte("evidence"))

	require.NoError(t, entitlements.Replace(context.Background(), entitlementdomain.NewState(true, false, []string{"sub.monthly"})))

	_, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	state := entitlements.Current()
	require.True(t, state.IsSubscribed)
	require.Equal(t, []string{"sub.yearly"}, state.PurchasedProductIDs)
	require.False(t, state.Owns("sub.monthly"))
}
