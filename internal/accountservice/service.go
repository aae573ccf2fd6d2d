// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, email string) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	List(ctx context.Context, arg domain.ListAccountsParams) ([]domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create creates and returns a zero balance account for the given email.
func (s *Service) Create(ctx context.Context, email string) (domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.repo.Create(ctx, email)
	if err != nil {
		return account, err
	}

	zerolog.Ctx(ctx).Info().Int64("account_id", account.ID).Msg("account created")

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// List returns a page of accounts. Zero pageSize returns all accounts.
func (s *Service) List(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error) {
	arg := domain.ListAccountsParams{}

	if pageSize > 0 {
		if pageID < 1 {
			pageID = 1
		}

		arg.Limit = pageSize
		arg.Offset = (pageID - 1) * pageSize
	}

	accounts, err := s.repo.List(ctx, arg)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Delete removes the account with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Int64("account_id", id).Msg("account removed")

	return nil
}
