package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	attempt := NewAttempt(1, "sub.monthly")
	require.Equal(t, StateIdle, attempt.State())

	require.NoError(t, attempt.Request())
	require.NoError(t, attempt.MarkStoreSuccess())
	require.NoError(t, attempt.BeginValidation())
	require.NoError(t, attempt.MarkPurchased())
	require.Equal(t, StatePurchased, attempt.State())
}

func TestValidationFailedPath(t *testing.T) {
	attempt := NewAttempt(1, "sub.monthly")
	require.NoError(t, attempt.Request())
	require.NoError(t, attempt.MarkStoreSuccess())
	require.NoError(t, attempt.BeginValidation())
	require.NoError(t, attempt.MarkValidationFailed())
	require.Equal(t, StateValidationFailed, attempt.State())
}

func TestStoreTerminalStates(t *testing.T) {
	for _, tc := range []struct {
		name string
		mark func(*Attempt) error
		want AttemptState
	}{
		{"deferred", (*Attempt).MarkStoreDeferred, StateStoreDeferred},
		{"error", (*Attempt).MarkStoreError, StateStoreError},
		{"cancelled", (*Attempt).MarkStoreCancelled, StateStoreCancelled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			attempt := NewAttempt(1, "sub.monthly")
			require.NoError(t, attempt.Request())
			require.NoError(t, tc.mark(attempt))
			require.Equal(t, tc.want, attempt.State())

			// Terminal store states accept no further transitions.
			require.ErrorIs(t, attempt.BeginValidation(), ErrInvalidTransition)
			require.ErrorIs(t, attempt.MarkPurchased(), ErrInvalidTransition)
		})
	}
}

func TestIllegalTransitions(t *testing.T) {
	attempt := NewAttempt(1, "sub.monthly")

	require.ErrorIs(t, attempt.MarkStoreSuccess(), ErrInvalidTransition)
	require.ErrorIs(t, attempt.MarkPurchased(), ErrInvalidTransition)

	require.NoError(t, attempt.Request())
	require.ErrorIs(t, attempt.Request(), ErrInvalidTransition)
	require.ErrorIs(t, attempt.MarkPurchased(), ErrInvalidTransition)
}
