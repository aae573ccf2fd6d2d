// Package app wires the application services together.
package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/dig"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// Injector is a function that will inject desired services
// to a target function.
type Injector func(function interface{}) error

// NewStore opens the account store selected by the config.
//
// SQL stores are migrated before they are returned.
func NewStore(ctx context.Context, config configpkg.Config) (httpserver.Store, error) {
	if config.DBDriver == configpkg.DriverMemory {
		return accountrepo.NewRepoMem(config.LockTimeout), nil
	}

	dialect, err := accountrepo.DialectFor(config.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}

	repo := accountrepo.NewRepoSQL(db, dialect, config.LockTimeout)

	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, errors.Wrap(err, "cannot migrate database")
	}

	return repo, nil
}

// BootstrapServices setup di container with all app services.
func BootstrapServices(config configpkg.Config) (Injector, error) {
	c := dig.New()

	providers := []interface{}{
		func() configpkg.Config {
			return config
		},
		middleware.CreateLogger,
		func(config configpkg.Config, logger zerolog.Logger) (httpserver.Store, error) {
			ctx := logger.WithContext(context.Background())
			return NewStore(ctx, config)
		},
		httpserver.New,
	}

	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, errors.Wrap(err, "cannot provide service")
		}
	}

	return func(function interface{}) error {
		return c.Invoke(function)
	}, nil
}
