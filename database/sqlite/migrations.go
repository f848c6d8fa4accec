package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gallerd"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the key-value table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, tables gallerd.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		)
	`, quoteIdentifier(tables.KV))

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate %s: %w", tables.KV, err)
	}

	return nil
}

// DropTables removes the key-value table. Intended for tests.
func DropTables(ctx context.Context, db *sql.DB, tables gallerd.Tables) error {
	dropSQL := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdentifier(tables.KV))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop %s: %w", tables.KV, err)
	}
	return nil
}

// ValidateSchema checks the key-value table exists with the expected
// columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables gallerd.Tables) error {
	if !gallerd.IsValidTableName(tables.KV) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.KV)
	}

	exists, err := tableExists(ctx, db, tables.KV)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("validate schema: table %s does not exist", tables.KV)
	}

	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tables.KV))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("validate schema: query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, dataType string
		var notNull int
		var dfltValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		actual[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: rows error: %w", err)
	}

	for _, col := range []string{"key", "value"} {
		if !actual[col] {
			return fmt.Errorf("validate schema: table %s is missing column %s", tables.KV, col)
		}
	}

	return nil
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var name string
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	err := db.QueryRowContext(ctx, query, tableName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return true, nil
}
