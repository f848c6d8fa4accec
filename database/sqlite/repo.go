// Package sqlite implements the metadata repo on a SQLite key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gallerd"
)

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a gallerd.MetadataRepo backed by the given database.
// The table name must have been validated and migrated beforehand.
func NewRepo(db *sql.DB, tables gallerd.Tables) (gallerd.MetadataRepo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new sqlite repo: %w", err)
	}
	return &repo{db: db, tableName: quoteIdentifier(tables.KV)}, nil
}

func (r *repo) Get(ctx context.Context, id string) (gallerd.ImageRecord, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	var value string
	err := r.db.QueryRowContext(ctx, query, gallerd.Key(id)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gallerd.ImageRecord{}, gallerd.ErrNotFound
		}
		return gallerd.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	var record gallerd.ImageRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		return gallerd.ImageRecord{}, fmt.Errorf("get: decode record: %w", err)
	}

	return record, nil
}

func (r *repo) Save(ctx context.Context, record gallerd.ImageRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("save: encode record: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, r.tableName)

	if _, err := r.db.ExecContext(ctx, query, gallerd.Key(record.ID), string(value)); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	result, err := r.db.ExecContext(ctx, query, gallerd.Key(id))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return gallerd.ErrNotFound
	}

	return nil
}

func (r *repo) List(ctx context.Context) ([]gallerd.ImageRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT value FROM %s WHERE key LIKE ? || '%%' ESCAPE '\'`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, escapeLikePattern(gallerd.KeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]gallerd.ImageRecord, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		var record gallerd.ImageRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("list: decode record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return records, nil
}

// escapeLikePattern escapes special LIKE characters (%, _, \) so a key
// prefix matches literally.
func escapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
