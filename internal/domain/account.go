// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailAlreadyExists indicates that an account with the given email already exists.
	ErrEmailAlreadyExists = errors.New("account already exists")
)

// AccountNotFoundError reports the id of the missing account.
type AccountNotFoundError struct {
	ID int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %d not found", e.ID)
}

// Is makes AccountNotFoundError match ErrAccountNotFound.
func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// NotFound returns an error reporting that the account with the given id is missing.
func NotFound(id int64) error {
	return &AccountNotFoundError{ID: id}
}

// Account holds the balance of the account identified by email.
type Account struct {
	ID        int64           `json:"id"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListAccountsParams is the input data to list accounts.
//
// Zero Limit lists all accounts, Offset only applies with a positive Limit.
type ListAccountsParams struct {
	Limit  int32
	Offset int32
}

// BalanceFunc computes the new balance from the current one.
// A returned error aborts the mutation.
type BalanceFunc func(balance decimal.Decimal) (decimal.Decimal, error)

// BalancePairFunc computes the new balances of two accounts from their current ones.
// A returned error aborts the mutation of both.
type BalancePairFunc func(a, b decimal.Decimal) (decimal.Decimal, decimal.Decimal, error)
