package accountrepo

import (
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Dialect holds what differs between the supported SQL databases.
type Dialect struct {
	Name string

	schema    string
	forUpdate string

	isUniqueViolation  func(error) bool
	isBalanceViolation func(error) bool
	isLockTimeout      func(error) bool
}

// Postgres is the lib/pq dialect.
//
// Rows are locked with SELECT ... FOR UPDATE.
var Postgres = Dialect{
	Name: "postgres",
	schema: `
CREATE TABLE IF NOT EXISTS accounts (
    id         BIGSERIAL PRIMARY KEY,
    email      VARCHAR(254) NOT NULL,
    balance    NUMERIC(20, 2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT accounts_email_key UNIQUE (email),
    CONSTRAINT accounts_balance_check CHECK (balance >= 0)
)`,
	forUpdate: " FOR UPDATE",
	isUniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Constraint == "accounts_email_key"
	},
	isBalanceViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Constraint == "accounts_balance_check"
	},
	isLockTimeout: func(err error) bool {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return false
		}

		switch pqErr.Code.Name() {
		case "query_canceled", "lock_not_available":
			return true
		}

		return false
	},
}

// SQLite is the mattn/go-sqlite3 dialect.
//
// SQLite has no row locks, the store relies on a single pooled connection
// (see dbpkg.Setup) so that every transaction is exclusive.
var SQLite = Dialect{
	Name: "sqlite3",
	schema: `
CREATE TABLE IF NOT EXISTS accounts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT NOT NULL UNIQUE,
    balance    TEXT NOT NULL DEFAULT '0' CHECK (CAST(balance AS REAL) >= 0),
    created_at TIMESTAMP NOT NULL
)`,
	isUniqueViolation: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	},
	isBalanceViolation: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	},
	isLockTimeout: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
	},
}

// ErrUnknownDialect indicates unsupported database driver.
var ErrUnknownDialect = errors.New("unknown sql dialect")

// DialectFor returns the dialect of the given database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	}

	return Dialect{}, errors.Wrap(ErrUnknownDialect, driver)
}
