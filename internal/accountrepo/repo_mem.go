// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

type entry struct {
	// lock is held by whoever reads or mutates account.
	// A buffered channel lets waiters give up on a deadline.
	lock    chan struct{}
	account domain.Account
	deleted bool
}

// RepoMem keeps accounts in memory.
//
// Every account has its own lock, mu only guards the index maps and is never
// held while waiting for an account lock.
type RepoMem struct {
	mu          sync.RWMutex
	lastID      int64
	accounts    map[int64]*entry
	emails      map[string]int64
	lockTimeout time.Duration
}

// NewRepoMem returns in-memory account repo.
//
// lockTimeout bounds how long an operation waits for an account.
func NewRepoMem(lockTimeout time.Duration) *RepoMem {
	return &RepoMem{
		accounts:    make(map[int64]*entry),
		emails:      make(map[string]int64),
		lockTimeout: lockTimeout,
	}
}

func (r *RepoMem) lookup(id int64) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.accounts[id]

	return e, ok
}

func acquire(ctx context.Context, e *entry) error {
	select {
	case e.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		zerolog.Ctx(ctx).Warn().Err(ctx.Err()).Int64("account_id", e.account.ID).Msg("account lock wait expired")
		return errorspkg.ErrUnavailable
	}
}

func release(e *entry) {
	<-e.lock
}

// Create creates the account with zero balance and then returns it.
func (r *RepoMem) Create(ctx context.Context, email string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emails[email]; ok {
		return domain.Account{}, domain.ErrEmailAlreadyExists
	}

	r.lastID++

	a := domain.Account{
		ID:        r.lastID,
		Email:     email,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}

	r.accounts[a.ID] = &entry{lock: make(chan struct{}, 1), account: a}
	r.emails[email] = a.ID

	return a, nil
}

// Get returns the account with the given id.
func (r *RepoMem) Get(ctx context.Context, id int64) (domain.Account, error) {
	e, ok := r.lookup(id)
	if !ok {
		return domain.Account{}, domain.NotFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	if err := acquire(ctx, e); err != nil {
		return domain.Account{}, err
	}
	defer release(e)

	if e.deleted {
		return domain.Account{}, domain.NotFound(id)
	}

	return e.account, nil
}

// List returns accounts ordered by id.
//
// Every balance is read under its account lock and the wait for all of them
// shares one lock timeout. An account held past that timeout fails the whole
// listing with ErrUnavailable instead of returning a partial page.
func (r *RepoMem) List(ctx context.Context, arg domain.ListAccountsParams) ([]domain.Account, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.accounts))
	for _, e := range r.accounts {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	// ID never changes, reading it without the entry lock is safe.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].account.ID < entries[j].account.ID
	})

	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	items := []domain.Account{}

	for _, e := range entries {
		if err := acquire(ctx, e); err != nil {
			return nil, err
		}

		if !e.deleted {
			items = append(items, e.account)
		}

		release(e)
	}

	return page(items, arg), nil
}

func page(items []domain.Account, arg domain.ListAccountsParams) []domain.Account {
	if arg.Limit <= 0 {
		return items
	}

	offset := int(arg.Offset)
	if offset >= len(items) {
		return []domain.Account{}
	}

	items = items[offset:]

	if int(arg.Limit) < len(items) {
		items = items[:arg.Limit]
	}

	return items
}

// Delete removes the account with the given id.
func (r *RepoMem) Delete(ctx context.Context, id int64) error {
	e, ok := r.lookup(id)
	if !ok {
		return domain.NotFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	if err := acquire(ctx, e); err != nil {
		return err
	}
	defer release(e)

	if e.deleted {
		return domain.NotFound(id)
	}

	e.deleted = true

	r.mu.Lock()
	delete(r.accounts, id)
	delete(r.emails, e.account.Email)
	r.mu.Unlock()

	return nil
}

// MutateBalance replaces the account balance with fn(balance) while holding the account lock.
func (r *RepoMem) MutateBalance(ctx context.Context, id int64, fn domain.BalanceFunc) (domain.Account, error) {
	e, ok := r.lookup(id)
	if !ok {
		return domain.Account{}, domain.NotFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	if err := acquire(ctx, e); err != nil {
		return domain.Account{}, err
	}
	defer release(e)

	if e.deleted {
		return domain.Account{}, domain.NotFound(id)
	}

	balance, err := fn(e.account.Balance)
	if err != nil {
		return domain.Account{}, err
	}

	if balance.IsNegative() {
		return domain.Account{}, domain.ErrInsufficientBalance
	}

	e.account.Balance = balance

	return e.account, nil
}

// MutateTwoBalances replaces both balances with fn(balanceA, balanceB) while holding both account locks.
//
// Locks are taken in ascending id order.
func (r *RepoMem) MutateTwoBalances(ctx context.Context, idA, idB int64, fn domain.BalancePairFunc) (domain.Account, domain.Account, error) {
	if idA == idB {
		return domain.Account{}, domain.Account{}, domain.ErrSameAccount
	}

	ea, ok := r.lookup(idA)
	if !ok {
		return domain.Account{}, domain.Account{}, domain.NotFound(idA)
	}

	eb, ok := r.lookup(idB)
	if !ok {
		return domain.Account{}, domain.Account{}, domain.NotFound(idB)
	}

	first, second := ea, eb
	if idB < idA {
		first, second = eb, ea
	}

	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	if err := acquire(ctx, first); err != nil {
		return domain.Account{}, domain.Account{}, err
	}
	defer release(first)

	if err := acquire(ctx, second); err != nil {
		return domain.Account{}, domain.Account{}, err
	}
	defer release(second)

	if ea.deleted {
		return domain.Account{}, domain.Account{}, domain.NotFound(idA)
	}

	if eb.deleted {
		return domain.Account{}, domain.Account{}, domain.NotFound(idB)
	}

	balanceA, balanceB, err := fn(ea.account.Balance, eb.account.Balance)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	if balanceA.IsNegative() || balanceB.IsNegative() {
		return domain.Account{}, domain.Account{}, domain.ErrInsufficientBalance
	}

	ea.account.Balance = balanceA
	eb.account.Balance = balanceB

	return ea.account, eb.account, nil
}
