package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	entitlementdomain "github.com/bazimogmbh/easypurchase/internal/entitlement/domain"
	"github.com/bazimogmbh/easypurchase/pkg/kv"
)

const (
	keyIsSubscribed      = "isSubscribed"
	keyIsLifetime        = "isLifetimeSubscription"
	keyPurchasedProducts = "purchasedProductIds"
)

type store struct {
	kv kv.KV
}

func Provide(backend kv.KV) entitlementdomain.Store {
	return &store{kv: backend}
}

func (s *store) Load(ctx context.Context) (entitlementdomain.State, error) {
	subscribed, err := s.loadBool(ctx, keyIsSubscribed)
	if err != nil {
		return entitlementdomain.DefaultState(), err
	}
	lifetime, err := s.loadBool(ctx, keyIsLifetime)
	if err != nil {
		return entitlementdomain.DefaultState(), err
	}

	raw, found, err := s.kv.Get(ctx, keyPurchasedProducts)
	if err != nil {
		return entitlementdomain.DefaultState(), err
	}
	var productIDs []string
	if found && raw != "" {
		if err := json.Unmarshal([]byte(raw), &productIDs); err != nil {
			return entitlementdomain.DefaultState(), fmt.Errorf("decode %s: %w", keyPurchasedProducts, err)
		}
	}

	return entitlementdomain.NewState(subscribed, lifetime, productIDs), nil
}

func (s *store) Save(ctx context.Context, state entitlementdomain.State) error {
	raw, err := json.Marshal(state.PurchasedProductIDs)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, keyIsSubscribed, strconv.FormatBool(state.IsSubscribed)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keyIsLifetime, strconv.FormatBool(state.IsLifetime)); err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPurchasedProducts, string(raw))
}

func (s *store) loadBool(ctx context.Context, key string) (bool, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, nil
}
