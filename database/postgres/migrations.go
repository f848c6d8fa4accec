package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gallerd"
)

// Migrate creates the key-value table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables gallerd.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	quotedTable := pgx.Identifier{tables.KV}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL
		)
	`, quotedTable)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.KV, err)
	}

	return nil
}

// DropTables removes the key-value table. Intended for tests.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables gallerd.Tables) error {
	quotedTable := pgx.Identifier{tables.KV}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quotedTable)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.KV, err)
	}
	return nil
}

// ValidateSchema checks the key-value table exists with the expected
// columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables gallerd.Tables) error {
	if !gallerd.IsValidTableName(tables.KV) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.KV)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
	`, tables.KV)
	if err != nil {
		return fmt.Errorf("validate schema: query columns: %w", err)
	}
	defer rows.Close()

	actual := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		actual[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: rows error: %w", err)
	}

	if len(actual) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", tables.KV)
	}

	for _, col := range []string{"key", "value"} {
		if !actual[col] {
			return fmt.Errorf("validate schema: table %s is missing column %s", tables.KV, col)
		}
	}

	return nil
}
