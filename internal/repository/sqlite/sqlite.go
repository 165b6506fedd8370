// Package sqlite implements the repository interfaces on top of SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite, registered with
// database/sql under the driver name "sqlite". sqlx sits on top of the
// database/sql pool and scans rows straight into the model structs using
// their `db` tags.
//
// CONNECTION POOL:
// DB owns one *sqlx.DB, which is a pool, not a connection. Every method
// borrows a connection for exactly one statement (or one transaction) and
// hands it back on every exit path: GetContext and SelectContext close their
// rows before returning, and transactions always run a deferred Rollback.
//
// FAILURES:
// Nothing in this package returns a "maybe nil" result. Callers get either a
// usable value or an error they can classify with errors.Is:
//   - apperror.ErrNotFound    no matching row
//   - apperror.ErrConflict    a UNIQUE constraint fired
//   - apperror.ErrUnavailable no connection could be used
//
// Any other error is a statement failure, wrapped with the operation name.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/schema"
)

// DB wraps the sqlx connection pool and implements the repository interfaces.
type DB struct {
	conn *sqlx.DB
}

// New opens a pool for dsn and verifies it with a ping.
//
// dsn examples:
//   - "file:data/events.db"  file-based database
//   - ":memory:"             in-memory database, lost on close (tests)
//
// maxOpenConns bounds concurrent statements. SQLite allows a single writer, so
// 1 is the sensible default; an in-memory database is always forced to 1
// because every new connection to ":memory:" is a separate empty database.
func New(dsn string, maxOpenConns int) (*DB, error) {
	if maxOpenConns <= 0 || strings.Contains(dsn, ":memory:") {
		maxOpenConns = 1
	}

	conn, err := sqlx.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxOpenConns)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress. In-memory
	// databases answer "memory" and keep going.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Registrations reference events(id) without ON DELETE CASCADE, so with
	// foreign keys on, an event can only be removed after its registrations.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	return &DB{conn: conn}, nil
}

// withForeignKeys adds the driver's per-connection pragma to URI style DSNs so
// that every pooled connection, not just the first, enforces foreign keys.
func withForeignKeys(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Close releases every pooled connection. Call it once, on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that a connection can still be acquired and used.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.Unavailable("sqlite: ping", err)
	}
	return nil
}

// CreateSchema runs the schema file at path (embedded default when empty).
func (db *DB) CreateSchema(ctx context.Context, path string) error {
	return schema.Create(ctx, db.conn, path)
}

// DropSchema runs the drop file at path (embedded default when empty).
func (db *DB) DropSchema(ctx context.Context, path string) error {
	return schema.Drop(ctx, db.conn, path)
}

// fail wraps a statement error with the operation name, promoting
// connectivity failures to apperror.ErrUnavailable.
func fail(op string, err error) error {
	if isUnavailable(err) {
		return apperror.Unavailable("sqlite: "+op, err)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	switch sqliteCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// sqliteCode returns the extended result code carried by a driver error, or 0.
func sqliteCode(err error) int {
	var se *moderncsqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}
