package order

import "errors"

var (
	// ErrInvalidAmount indicates a zero or negative order amount.
	ErrInvalidAmount = errors.New("order amount must be positive")
	// ErrRangeExhausted indicates every unique code in the configured range
	// is taken for the current day and bank account.
	ErrRangeExhausted = errors.New("unique code range exhausted for today")
	// ErrInvalidTransition indicates a status change that the lifecycle state
	// machine does not allow, including any transition out of a terminal
	// state. Reconciliation callers treat it as an idempotent no-op.
	ErrInvalidTransition = errors.New("illegal order status transition")
	// ErrOrderNotFound indicates no order exists for the given order id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExpired indicates the payment window elapsed before the
	// customer confirmed the transfer.
	ErrOrderExpired = errors.New("order expired")
	// ErrDuplicateOrder indicates the externally supplied order id is
	// already taken.
	ErrDuplicateOrder = errors.New("order id already exists")
)
