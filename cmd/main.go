// Package main starts the ledger API to manage accounts and move money between them.
package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/app"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	inject, err := app.BootstrapServices(config)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot bootstrap services")
	}

	err = inject(func(server *httpserver.Server, store httpserver.Store, logger zerolog.Logger) {
		if c, ok := store.(io.Closer); ok {
			defer c.Close()
		}

		logger.Info().
			Str("address", config.ServerAddress).
			Str("driver", config.DBDriver).
			Msg("LEDGER API SERVER HAS STARTED")

		if err := server.Engine.Run(config.ServerAddress); err != nil {
			logger.Error().Err(err).Msg("cannot start server")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create server")
	}
}
