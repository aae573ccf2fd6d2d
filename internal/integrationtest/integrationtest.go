// Package integrationtest provides server and db helpers used in integration tests.
package integrationtest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// LockTimeout bounds the wait for an account in tests.
const LockTimeout = 5 * time.Second

// SetupServer returns a quiet test server backed by the given store.
func SetupServer(t *testing.T, store httpserver.Store) *httpserver.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	config := configpkg.Config{
		DBDriver:      configpkg.DriverMemory,
		ServerAddress: "127.0.0.1:0",
		LockTimeout:   LockTimeout,
	}

	server, err := httpserver.New(store, zerolog.Nop(), config)
	if err != nil {
		t.Fatalf("httpserver.New(store, logger, config) returned error: %v", err)
	}

	return server
}

// SetupSQLRepo returns a migrated sql repo that is flushed and closed after the test.
func SetupSQLRepo(t *testing.T, driver, source string) *accountrepo.RepoSQL {
	t.Helper()

	dialect, err := accountrepo.DialectFor(driver)
	if err != nil {
		t.Fatalf("accountrepo.DialectFor(%q) returned error: %v", driver, err)
	}

	db := SetupDB(t, driver, source)

	repo := accountrepo.NewRepoSQL(db, dialect, LockTimeout)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("repo.Migrate() returned error: %v", err)
	}

	Flush(t, db)

	return repo
}

// Flush removes every account without dropping the table.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec(`DELETE FROM accounts`); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// Do sends a request with an optional JSON body to the server.
func Do(t *testing.T, server http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encoding request body error: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}
