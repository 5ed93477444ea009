package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/providers"
)

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		outcome providers.Outcome
		status  models.PaymentStatus
	}{
		{providers.OutcomeSuccess, models.PaymentCompleted},
		{providers.OutcomePending, models.PaymentProcessing},
		{providers.OutcomeFailed, models.PaymentFailed},
		{providers.OutcomeExpired, models.PaymentCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			status, ok := targetStatus(tt.outcome)
			require.True(t, ok)
			assert.Equal(t, tt.status, status)
		})
	}

	_, ok := targetStatus(providers.Outcome("garbage"))
	assert.False(t, ok)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrLockTimeout))
	assert.True(t, IsTransient(ErrStoreUnavailable))
	assert.True(t, IsTransient(storeError(&pgconn.PgError{Code: pgLockNotAvailable})))

	assert.False(t, IsTransient(ErrInvalidSignature))
	assert.False(t, IsTransient(ErrPaymentNotFound))
	assert.False(t, IsTransient(ErrAmountMismatch))
	assert.False(t, IsTransient(ErrInvalidStateTransition))
	assert.False(t, IsTransient(ErrInsufficientBalance))
}

func TestStoreErrorClassification(t *testing.T) {
	assert.Nil(t, storeError(nil))

	err := storeError(&pgconn.PgError{Code: pgDeadlockDetected, Message: "deadlock detected"})
	assert.ErrorIs(t, err, ErrLockTimeout)

	err = storeError(&pgconn.PgError{Code: pgLockNotAvailable, Message: "could not obtain lock on row"})
	assert.ErrorIs(t, err, ErrLockTimeout)

	err = storeError(&pgconn.PgError{Code: pgQueryCanceled, Message: "canceling statement due to statement timeout"})
	assert.ErrorIs(t, err, ErrLockTimeout)

	// Wrapped driver errors still unwrap to the SQLSTATE.
	err = storeError(fmt.Errorf("update balance: %w", &pgconn.PgError{Code: pgLockNotAvailable}))
	assert.ErrorIs(t, err, ErrLockTimeout)

	err = storeError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = storeError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
