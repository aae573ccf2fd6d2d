//go:build integration

package httpserver_test

import (
	"os"
	"testing"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
)

// Postgres joins the end to end tests when TEST_DB_SOURCE points at a database.
func init() {
	source := os.Getenv("TEST_DB_SOURCE")
	if source == "" {
		return
	}

	stores = append(stores, struct {
		name  string
		setup func(t *testing.T) httpserver.Store
	}{
		name: "Postgres",
		setup: func(t *testing.T) httpserver.Store {
			return integrationtest.SetupSQLRepo(t, "postgres", source)
		},
	})
}
