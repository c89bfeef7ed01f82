package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalidTransition = errors.New("purchase_invalid_transition")

type AttemptState string

const (
	StateIdle             AttemptState = "idle"
	StateRequested        AttemptState = "requested"
	StateStoreSuccess     AttemptState = "store_success"
	StateStoreDeferred    AttemptState = "store_deferred"
	StateStoreError       AttemptState = "store_error"
	StateStoreCancelled   AttemptState = "store_cancelled"
	StateValidating       AttemptState = "validating"
	StatePurchased        AttemptState = "purchased"
	StateValidationFailed AttemptState = "validation_failed"
)

// Attempt is the state machine of one purchase request. Transitions are
// explicit so the flow is testable without any storefront or network.
type Attempt struct {
	ID        snowflake.ID
	ProductID string

	state AttemptState
}

func NewAttempt(id snowflake.ID, productID string) *Attempt {
	return &Attempt{ID: id, ProductID: productID, state: StateIdle}
}

func (a *Attempt) State() AttemptState {
	return a.state
}

func (a *Attempt) Request() error {
	return a.transition(StateIdle, StateRequested)
}

func (a *Attempt) MarkStoreSuccess() error {
	return a.transition(StateRequested, StateStoreSuccess)
}

func (a *Attempt) MarkStoreDeferred() error {
	return a.transition(StateRequested, StateStoreDeferred)
}

func (a *Attempt) MarkStoreError() error {
	return a.transition(StateRequested, StateStoreError)
}

func (a *Attempt) MarkStoreCancelled() error {
	return a.transition(StateRequested, StateStoreCancelled)
}

func (a *Attempt) BeginValidation() error {
	return a.transition(StateStoreSuccess, StateValidating)
}

func (a *Attempt) MarkPurchased() error {
	return a.transition(StateValidating, StatePurchased)
}

func (a *Attempt) MarkValidationFailed() error {
	return a.transition(StateValidating, StateValidationFailed)
}

func (a *Attempt) transition(from, to AttemptState) error {
	if a.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.state, to)
	}
	a.state = to
	return nil
}
