package accountrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// RepoSQL facilitates account repository layer logic on top of database/sql.
type RepoSQL struct {
	db          *sql.DB
	dialect     Dialect
	lockTimeout time.Duration
}

// NewRepoSQL returns account RepoSQL.
func NewRepoSQL(db *sql.DB, dialect Dialect, lockTimeout time.Duration) *RepoSQL {
	return &RepoSQL{
		db:          db,
		dialect:     dialect,
		lockTimeout: lockTimeout,
	}
}

// Migrate creates the accounts table if it does not exist.
func (r *RepoSQL) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, r.dialect.schema)
	return errors.Wrap(err, "migrate accounts")
}

// Close closes the underlying database.
func (r *RepoSQL) Close() error {
	return r.db.Close()
}

// classify turns err into one of the errors the service layer understands.
func (r *RepoSQL) classify(ctx context.Context, err error) error {
	l := zerolog.Ctx(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrSameAccount):
		return err
	case r.dialect.isUniqueViolation(err):
		return domain.ErrEmailAlreadyExists
	case r.dialect.isBalanceViolation(err):
		return domain.ErrInsufficientBalance
	case ctx.Err() != nil, r.dialect.isLockTimeout(err):
		l.Warn().Err(err).Msg("accounts store timed out")
		return errorspkg.ErrUnavailable
	}

	l.Error().Stack().Err(err).Send()

	return errorspkg.ErrInternal
}

const createQuery = `
INSERT INTO
    accounts (email, balance, created_at)
VALUES
    ($1, $2, $3)
RETURNING id
`

// Create creates the account with zero balance and then returns it.
func (r *RepoSQL) Create(ctx context.Context, email string) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	a := domain.Account{
		Email:     email,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	row := r.db.QueryRowContext(ctx, createQuery, a.Email, a.Balance, a.CreatedAt)
	if err := row.Scan(&a.ID); err != nil {
		return domain.Account{}, r.classify(ctx, errors.Wrap(err, "create account"))
	}

	return a, nil
}

const getQuery = `
SELECT
    id, email, balance, created_at
FROM accounts
WHERE id = $1
`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Balance,
		&a.CreatedAt,
	)
	a.CreatedAt = a.CreatedAt.UTC()

	return a, err
}

func (r *RepoSQL) get(ctx context.Context, db dbpkg.SQLInterface, id int64, lock string) (domain.Account, error) {
	a, err := scanAccount(db.QueryRowContext(ctx, getQuery+lock, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, domain.NotFound(id)
		}

		return a, errors.Wrapf(err, "get account %d", id)
	}

	return a, nil
}

// Get returns the account with the given id.
func (r *RepoSQL) Get(ctx context.Context, id int64) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	a, err := r.get(ctx, r.db, id, "")
	if err != nil {
		return domain.Account{}, r.classify(ctx, err)
	}

	return a, nil
}

const listQuery = `
SELECT
    id, email, balance, created_at
FROM accounts
ORDER BY id
`

// List returns accounts ordered by id.
func (r *RepoSQL) List(ctx context.Context, arg domain.ListAccountsParams) ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	query, args := listQuery, []any{}
	if arg.Limit > 0 {
		query += "LIMIT $1 OFFSET $2"
		args = append(args, arg.Limit, arg.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.classify(ctx, errors.Wrap(err, "list accounts"))
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, r.classify(ctx, errors.Wrap(err, "scan account"))
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		return nil, r.classify(ctx, errors.Wrap(err, "list accounts"))
	}

	return items, nil
}

const deleteQuery = `
DELETE FROM accounts
WHERE id = $1
`

// Delete removes the account with the given id.
func (r *RepoSQL) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return r.classify(ctx, errors.Wrap(err, "delete account"))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return r.classify(ctx, errors.Wrap(err, "delete account"))
	}

	if n == 0 {
		return domain.NotFound(id)
	}

	return nil
}

const updateBalanceQuery = `
UPDATE accounts
SET balance = $1
WHERE id = $2
`

func updateBalance(ctx context.Context, tx *sql.Tx, id int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, updateBalanceQuery, balance, id)
	return errors.Wrapf(err, "update balance of account %d", id)
}

// inTx runs fn within a database transaction bounded by the lock timeout.
//
// Errors returned by fn roll the transaction back.
func (r *RepoSQL) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.classify(ctx, errors.Wrap(err, "begin tx"))
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("rollback failed")
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return r.classify(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return r.classify(ctx, errors.Wrap(err, "commit tx"))
	}

	return nil
}

// MutateBalance replaces the account balance with fn(balance) within a transaction
// holding the account row lock.
func (r *RepoSQL) MutateBalance(ctx context.Context, id int64, fn domain.BalanceFunc) (domain.Account, error) {
	var (
		result domain.Account
		fnErr  error
	)

	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		a, err := r.get(ctx, tx, id, r.dialect.forUpdate)
		if err != nil {
			return err
		}

		balance, err := fn(a.Balance)
		if err != nil {
			fnErr = err
			return err
		}

		if balance.IsNegative() {
			return domain.ErrInsufficientBalance
		}

		if err := updateBalance(ctx, tx, id, balance); err != nil {
			return err
		}

		a.Balance = balance
		result = a

		return nil
	})

	if fnErr != nil {
		return domain.Account{}, fnErr
	}

	if err != nil {
		return domain.Account{}, err
	}

	return result, nil
}

// MutateTwoBalances replaces both balances with fn(balanceA, balanceB) within a
// single transaction.
//
// To avoid deadlocks rows are locked in consistent id order.
func (r *RepoSQL) MutateTwoBalances(ctx context.Context, idA, idB int64, fn domain.BalancePairFunc) (domain.Account, domain.Account, error) {
	if idA == idB {
		return domain.Account{}, domain.Account{}, domain.ErrSameAccount
	}

	var (
		resultA, resultB domain.Account
		fnErr            error
	)

	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		ids := []int64{idA, idB}
		if idB < idA {
			ids = []int64{idB, idA}
		}

		locked := make(map[int64]domain.Account, 2)

		for _, id := range ids {
			a, err := r.get(ctx, tx, id, r.dialect.forUpdate)
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					continue
				}

				return err
			}

			locked[id] = a
		}

		a, ok := locked[idA]
		if !ok {
			return domain.NotFound(idA)
		}

		b, ok := locked[idB]
		if !ok {
			return domain.NotFound(idB)
		}

		balanceA, balanceB, err := fn(a.Balance, b.Balance)
		if err != nil {
			fnErr = err
			return err
		}

		if balanceA.IsNegative() || balanceB.IsNegative() {
			return domain.ErrInsufficientBalance
		}

		for _, id := range ids {
			balance := balanceA
			if id == idB {
				balance = balanceB
			}

			if err := updateBalance(ctx, tx, id, balance); err != nil {
				return err
			}
		}

		a.Balance, b.Balance = balanceA, balanceB
		resultA, resultB = a, b

		return nil
	})

	if fnErr != nil {
		return domain.Account{}, domain.Account{}, fnErr
	}

	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	return resultA, resultB, nil
}
