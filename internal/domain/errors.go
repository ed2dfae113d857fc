package domain

import "errors"

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrIdempotencyConflict  = errors.New("idempotency key already used by another user")
	ErrInvalidChartInput    = errors.New("invalid chart input")
	ErrInvalidAmount        = errors.New("invalid amount for transaction type")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPaymentNotVerified   = errors.New("payment could not be verified")
	ErrInvalidInput         = errors.New("invalid input")
)
