package repository

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrConcurrencyConflict = errors.New("wallet was modified concurrently")
)

// InsufficientFundsError reports the balance a rejected delta was checked against.
type InsufficientFundsError struct {
	Current  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: balance %s, required %s", ErrInsufficientFunds, e.Current.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
