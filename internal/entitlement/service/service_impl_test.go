package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
)

// Manual Mocks

type mockStore struct {
	state   *entitlementdomain.State
	saveErr error
	saved   []entitlementdomain.State
}

func (m *mockStore) Load(ctx context.Context) (entitlementdomain.State, error) {
	if m.state == nil {
		return entitlementdomain.DefaultState(), nil
	}
	return *m.state, nil
}

func (m *mockStore) Save(ctx context.Context, state entitlementdomain.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, state)
	return nil
}

func newTestService(store entitlementdomain.Store) entitlementdomain.Service {
	return NewService(ServiceParam{
		Log:   zap.NewNop(),
		Store: store,
	})
}

func TestWarmSeedsFromStore(t *testing.T) {
	persisted := entitlementdomain.NewState(true, false, []string{"sub.monthly"})
	svc := newTestService(&mockStore{state: &persisted})

	require.NoError(t, svc.Warm(context.Background()))

	current := svc.Current()
	require.True(t, current.IsSubscribed)
	require.False(t, current.IsLifetime)
	require.Equal(t, []string{"sub.monthly"}, current.PurchasedProductIDs)
}

func TestWarmDefaultsWhenNothingPersisted(t *testing.T) {
	svc := newTestService(&mockStore{})

	require.NoError(t, svc.Warm(context.Background()))

	current := svc.Current()
	require.False(t, current.IsSubscribed)
	require.False(t, current.IsLifetime)
	require.Empty(t, current.PurchasedProductIDs)
}

func TestReplaceLifetimeImpliesSubscribed(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)

	next := entitlementdomain.State{IsLifetime: true, PurchasedProductIDs: []string{"unlock.lifetime"}}
	require.NoError(t, svc.Replace(context.Background(), next))

	current := svc.Current()
	require.True(t, current.IsSubscribed)
	require.True(t, current.IsLifetime)
	require.Len(t, store.saved, 1)
	require.True(t, store.saved[0].IsSubscribed)
}

func TestReplaceDropsAbsentProducts(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)

	require.NoError(t, svc.Replace(context.Background(), entitlementdomain.NewState(true, false, []string{"sub.a", "sub.b"})))
	require.NoError(t, svc.Replace(context.Background(), entitlementdomain.NewState(true, false, []string{"sub.b"})))

	current := svc.Current()
	require.Equal(t, []string{"sub.b"}, current.PurchasedProductIDs)
	require.False(t, current.Owns("sub.a"))
}

func TestReplacePersistenceFailureKeepsInMemoryState(t *testing.T) {
	store := &mockStore{saveErr: errors.New("disk full")}
	svc := newTestService(store)

	next := entitlementdomain.NewState(true, false, []string{"sub.monthly"})
	err := svc.Replace(context.Background(), next)
	require.ErrorIs(t, err, entitlementdomain.ErrPersistence)

	// The derived state stays authoritative in memory.
	current := svc.Current()
	require.True(t, current.IsSubscribed)
	require.Equal(t, []string{"sub.monthly"}, current.PurchasedProductIDs)
}
