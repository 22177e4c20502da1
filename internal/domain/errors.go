package domain

import "errors"

// Business-rule rejections. Expected, user facing, not retried.
var (
	ErrPendingOperation     = errors.New("pending transaction, contact support")
	ErrInvalidOperationType = errors.New("invalid transaction type")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount must be a positive decimal")
)

// Lookup and infrastructure failures.
var (
	ErrNotFound    = errors.New("record not found")
	ErrContention  = errors.New("wallet is busy")
	ErrUnavailable = errors.New("store unavailable")
)

// Status reporting and settlement.
var (
	ErrUnknownStatus           = errors.New("unknown transaction status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// Account subsystem.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrInactiveUser       = errors.New("user is not active")
	ErrAlreadyActive      = errors.New("user is already active")
	ErrInvalidToken       = errors.New("invalid token")
)

// IsBusinessRule reports whether err is a declined operation rather than a failure
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrPendingOperation) ||
		errors.Is(err, ErrInvalidOperationType) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidAmount)
}
