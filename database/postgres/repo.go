// Package postgres implements the metadata repo on a PostgreSQL key-value
// table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gallerd"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables gallerd.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: pgx.Identifier{tables.KV}.Sanitize()}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (gallerd.ImageRecord, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.tableName)

	var value []byte
	err := r.pool.QueryRow(ctx, query, gallerd.Key(id)).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gallerd.ImageRecord{}, gallerd.ErrNotFound
		}
		return gallerd.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	var record gallerd.ImageRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return gallerd.ImageRecord{}, fmt.Errorf("get: decode record: %w", err)
	}

	return record, nil
}

func (r *Repo) Save(ctx context.Context, record gallerd.ImageRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("save: encode record: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, gallerd.Key(record.ID), value); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.tableName)

	tag, err := r.pool.Exec(ctx, query, gallerd.Key(id))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return gallerd.ErrNotFound
	}

	return nil
}

func (r *Repo) List(ctx context.Context) ([]gallerd.ImageRecord, error) {
	query := fmt.Sprintf(
		`SELECT value FROM %s WHERE key LIKE $1 || '%%' ESCAPE '\'`, r.tableName)

	rows, err := r.pool.Query(ctx, query, escapeLikePattern(gallerd.KeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	records := make([]gallerd.ImageRecord, 0)
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		var record gallerd.ImageRecord
		if err := json.Unmarshal(value, &record); err != nil {
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
