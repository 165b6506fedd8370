// Package schema creates and drops the database tables.
//
// Each operation reads a SQL file and executes its full text as a single
// statement batch. There is no versioning: schema.sql uses
// CREATE TABLE IF NOT EXISTS so it is safe to run on every startup, and
// drop.sql removes everything.
//
// The default files are embedded in the binary; a path overrides them.
package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
)

//go:embed schema.sql
var defaultSchema string

//go:embed drop.sql
var defaultDrop string

// Execer is satisfied by *sql.DB, *sqlx.DB and both transaction types.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Create executes the schema file at path, or the embedded schema when path
// is empty.
func Create(ctx context.Context, db Execer, path string) error {
	return run(ctx, db, path, defaultSchema, "creating schema")
}

// Drop executes the drop file at path, or the embedded drop script when path
// is empty.
func Drop(ctx context.Context, db Execer, path string) error {
	return run(ctx, db, path, defaultDrop, "dropping schema")
}

func run(ctx context.Context, db Execer, path, fallback, op string) error {
	text := fallback
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("schema: %s: reading %s: %w", op, path, err)
		}
		text = string(data)
	}

	if _, err := db.ExecContext(ctx, text); err != nil {
		return fmt.Errorf("schema: %s: %w", op, err)
	}
	return nil
}
