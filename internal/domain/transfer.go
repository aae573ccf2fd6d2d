package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBalanceLimitExceeded indicates that the resulting balance would exceed the balance limit.
	ErrBalanceLimitExceeded = fmt.Errorf("%w: balance limit exceeded", ErrInvalidAmount)
	// ErrSameAccount indicates a transfer from an account to itself.
	ErrSameAccount = errors.New("source and target accounts are the same")
	// ErrSourceAccountNotFound indicates that the transfer source account is not found.
	ErrSourceAccountNotFound = fmt.Errorf("source %w", ErrAccountNotFound)
	// ErrTargetAccountNotFound indicates that the transfer target account is not found.
	ErrTargetAccountNotFound = fmt.Errorf("target %w", ErrAccountNotFound)
)

// TransferParams is the input data for the transfer.
type TransferParams struct {
	SourceID int64           `json:"source_id"`
	TargetID int64           `json:"target_id"`
	Amount   decimal.Decimal `json:"amount"` // must be positive
}

// TransferResult is the result of the transfer.
type TransferResult struct {
	Source Account `json:"source"`
	Target Account `json:"target"`
}
