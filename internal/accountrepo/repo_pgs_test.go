//go:build integration

package accountrepo_test

import (
	"os"
	"testing"

	"github.com/go-petr/pet-ledger/internal/integrationtest"
)

// Postgres joins the repo contract tests when TEST_DB_SOURCE points at a database.
func init() {
	source := os.Getenv("TEST_DB_SOURCE")
	if source == "" {
		return
	}

	repos = append(repos, struct {
		name  string
		setup func(t *testing.T) store
	}{
		name: "Postgres",
		setup: func(t *testing.T) store {
			return integrationtest.SetupSQLRepo(t, "postgres", source)
		},
	})
}
