package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB returns a migrated in-memory database private to the test.
// The writer and reader pools share it through cache=shared under a name
// derived from t.Name().
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Escaped so subtest names cannot inject DSN query parameters.
	safeName := url.PathEscape(t.Name())
	// No journal_mode pragma: WAL does not apply to in-memory databases.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	open := func(maxOpen int) *sql.DB {
		pool, err := sql.Open("sqlite", dsn)
		if err != nil {
			t.Fatalf("open test db: %v", err)
		}
		pool.SetMaxOpenConns(maxOpen)
		if err := pool.PingContext(context.Background()); err != nil {
			_ = pool.Close()
			t.Fatalf("ping test db: %v", err)
		}
		return pool
	}

	db := &DB{Writer: open(1), Reader: open(4)}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
