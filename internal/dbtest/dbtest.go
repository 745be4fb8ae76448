// Package dbtest opens a migrated PostgreSQL database for integration tests.
//
// Tests using it are skipped unless CURATOR_TEST_DB_URL names a database that
// may be wiped. Every Open truncates all curator tables.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// EnvURL names the disposable test database.
const EnvURL = "CURATOR_TEST_DB_URL"

// lockKey serializes test packages sharing the database.
const lockKey = 0x63757261746f72

const tables = "documents, document_tags, tags, comparisons, lifecycle_events, search_postings"

// Open migrates the test database to the latest schema, takes an exclusive
// test lock until cleanup, and returns a connection to empty tables.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvURL)
	}
	ctx := context.Background()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	lock, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("reserve lock connection: %v", err)
	}
	if _, err := lock.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		t.Fatalf("acquire test lock: %v", err)
	}
	t.Cleanup(func() {
		lock.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", lockKey)
		lock.Close()
	})

	migrateUp(t, dsn)

	if _, err := db.ExecContext(ctx, "TRUNCATE "+tables+" RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func migrateUp(t *testing.T, dsn string) {
	t.Helper()

	m, err := migrate.New("file://"+migrationsDir(), dsn)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "cmd", "migrate", "migrations")
}
