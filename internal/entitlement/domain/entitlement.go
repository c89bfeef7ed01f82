package domain

import (
	"context"
	"errors"
	"sort"
)

var ErrPersistence = errors.New("entitlement_persistence_failed")

// State is the locally cached belief about what the user owns.
type State struct {
	IsSubscribed        bool
	IsLifetime          bool
	PurchasedProductIDs []string
}

// NewState builds a normalized state: a lifetime unlock always implies an
// active subscription, product ids are deduplicated and sorted.
func NewState(subscribed, lifetime bool, productIDs []string) State {
	seen := make(map[string]struct{}, len(productIDs))
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return State{
		IsSubscribed:        subscribed || lifetime,
		IsLifetime:          lifetime,
		PurchasedProductIDs: ids,
	}
}

// DefaultState is the safe starting point before any verification has run.
func DefaultState() State {
	return State{PurchasedProductIDs: []string{}}
}

// Owns reports whether productID is part of the entitled set.
func (s State) Owns(productID string) bool {
	for _, id := range s.PurchasedProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Store is the durable key/value persistence of entitlement facts.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Service is the single logical owner of entitlement state. Current
// returns the in-memory view; Replace swaps it wholesale, persisting
// before the caller learns the outcome.
type Service interface {
	Warm(ctx context.Context) error
	Current() State
	Replace(ctx context.Context, next State) error
}
