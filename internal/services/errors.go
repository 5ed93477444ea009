package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Boundary error kinds. Handlers pick HTTP responses with errors.Is so
// transient-retry and terminal-reject outcomes stay distinguishable without
// string matching.
var (
	ErrInvalidPayload         = errors.New("invalid webhook payload")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrPaymentNotFound        = errors.New("payment transaction not found")
	ErrAmountMismatch         = errors.New("declared amount does not match transaction amount")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInsufficientBalance    = errors.New("insufficient available balance")
	ErrLockTimeout            = errors.New("lock wait timeout")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

// InsufficientBalanceError carries the creator's actual available balance so
// the withdrawal API can report it.
type InsufficientBalanceError struct {
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient available balance: %s available", e.Available.String())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// IsTransient reports whether the caller should retry (webhook: ask the
// provider to redeliver; withdrawal: surface a retryable error).
func IsTransient(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrStoreUnavailable)
}

// Postgres SQLSTATE codes that mean the statement lost a lock race and the
// caller should retry: lock_not_available (raised when lock_timeout fires),
// deadlock_detected, and query_canceled (raised when statement_timeout fires).
const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
	pgQueryCanceled    = "57014"
)

// storeError classifies a database error. Lock-wait timeouts and deadlocks
// are retryable; everything else is reported as the store being unavailable.
// The transaction has already rolled back cleanly in either case.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgQueryCanceled:
			return fmt.Errorf("%w: %v", ErrLockTimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
