package service

import (
	"errors"

	"circuitrack/internal/repository"
)

var (
	ErrInvalidAmount  = errors.New("amount must be positive with at most two decimal places")
	ErrEmptyOrder     = errors.New("order must contain at least one item")
	ErrInvalidItem    = errors.New("order item requires a product, quantity > 0 and unit price > 0")
	ErrInvalidBalance = errors.New("unknown balance type")
)

// CheckoutError carries a buyer-facing message for a failed checkout. The
// underlying cause stays reachable through errors.Is/As.
type CheckoutError struct {
	Message string
	Err     error
}

func (e *CheckoutError) Error() string { return e.Message }

func (e *CheckoutError) Unwrap() error { return e.Err }

// resultLabel maps an error to a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, repository.ErrWalletNotFound), errors.Is(err, repository.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidItem):
		return "invalid"
	case errors.Is(err, repository.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}
