// Package ledgerservice manages business logic layer of balance changes.
//
// Every rule that depends on a balance is evaluated inside the function handed
// to the repo, so the check and the write happen under the same account lock.
package ledgerservice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	MutateBalance(ctx context.Context, id int64, fn domain.BalanceFunc) (domain.Account, error)
	MutateTwoBalances(ctx context.Context, idA, idB int64, fn domain.BalancePairFunc) (domain.Account, domain.Account, error)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo Repo
}

// New return ledger service struct to manage balance bussines logic.
func New(r Repo) *Service {
	return &Service{repo: r}
}

func validAmount(ctx context.Context, amount decimal.Decimal) error {
	if !moneypkg.IsValidAmount(amount) {
		zerolog.Ctx(ctx).Info().Str("amount", amount.String()).Msg("invalid amount")
		return domain.ErrInvalidAmount
	}

	return nil
}

// Deposit adds amount to the account balance.
func (s *Service) Deposit(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if err := validAmount(ctx, amount); err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.MutateBalance(ctx, id, func(balance decimal.Decimal) (decimal.Decimal, error) {
		balance = balance.Add(amount)
		if balance.GreaterThan(moneypkg.MaxAmount) {
			return balance, domain.ErrBalanceLimitExceeded
		}

		return balance, nil
	})
	if err != nil {
		l.Info().Err(err).Int64("account_id", id).Msg("deposit failed")
		return domain.Account{}, err
	}

	l.Info().Int64("account_id", id).Str("amount", amount.String()).Msg("deposited")

	return account, nil
}

// Withdraw subtracts amount from the account balance if the balance covers it.
func (s *Service) Withdraw(ctx context.Context, id int64, amount decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if err := validAmount(ctx, amount); err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.MutateBalance(ctx, id, func(balance decimal.Decimal) (decimal.Decimal, error) {
		if balance.LessThan(amount) {
			return balance, domain.ErrInsufficientBalance
		}

		return balance.Sub(amount), nil
	})
	if err != nil {
		l.Info().Err(err).Int64("account_id", id).Msg("withdraw failed")
		return domain.Account{}, err
	}

	l.Info().Int64("account_id", id).Str("amount", amount.String()).Msg("withdrawn")

	return account, nil
}

// Transfer moves amount from the source account to the target account.
//
// Both balances change in one step, a transfer to the same account is rejected.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	l := zerolog.Ctx(ctx)

	if err := validAmount(ctx, arg.Amount); err != nil {
		return domain.TransferResult{}, err
	}

	if arg.SourceID == arg.TargetID {
		l.Info().Int64("account_id", arg.SourceID).Msg("transfer to the same account")
		return domain.TransferResult{}, domain.ErrSameAccount
	}

	source, target, err := s.repo.MutateTwoBalances(ctx, arg.SourceID, arg.TargetID,
		func(sourceBalance, targetBalance decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
			if sourceBalance.LessThan(arg.Amount) {
				return sourceBalance, targetBalance, domain.ErrInsufficientBalance
			}

			targetBalance = targetBalance.Add(arg.Amount)
			if targetBalance.GreaterThan(moneypkg.MaxAmount) {
				return sourceBalance, targetBalance, domain.ErrBalanceLimitExceeded
			}

			return sourceBalance.Sub(arg.Amount), targetBalance, nil
		})
	if err != nil {
		err = transferNotFound(err, arg)
		l.Info().Err(err).
			Int64("source_id", arg.SourceID).
			Int64("target_id", arg.TargetID).
			Msg("transfer failed")

		return domain.TransferResult{}, err
	}

	l.Info().
		Int64("source_id", arg.SourceID).
		Int64("target_id", arg.TargetID).
		Str("amount", arg.Amount.String()).
		Msg("transferred")

	return domain.TransferResult{Source: source, Target: target}, nil
}

// transferNotFound names the missing side of the transfer.
func transferNotFound(err error, arg domain.TransferParams) error {
	var nf *domain.AccountNotFoundError
	if !errors.As(err, &nf) {
		return err
	}

	if nf.ID == arg.TargetID {
		return domain.ErrTargetAccountNotFound
	}

	return domain.ErrSourceAccountNotFound
}
