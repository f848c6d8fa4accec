// Package redis implements the metadata repo on a redis key-value store.
// Records are JSON blobs under image:<id> keys; the full listing walks the
// prefix with SCAN, so it never blocks the server the way KEYS would.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v7"

	"gallerd"
)

const scanBatchSize = 100

// Repo is a redis-backed gallerd.MetadataRepo.
type Repo struct {
	client *redis.Client
}

func New(addr, password string, db int) *Repo {
	return &Repo{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping checks the connection.
func (r *Repo) Ping() error {
	return r.client.Ping().Err()
}

// Close releases the underlying connection pool.
func (r *Repo) Close() error {
	return r.client.Close()
}

func (r *Repo) Get(ctx context.Context, id string) (gallerd.ImageRecord, error) {
	data, err := r.client.WithContext(ctx).Get(gallerd.Key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gallerd.ImageRecord{}, gallerd.ErrNotFound
		}
		return gallerd.ImageRecord{}, fmt.Errorf("get %s: %w", id, err)
	}

	var record gallerd.ImageRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return gallerd.ImageRecord{}, fmt.Errorf("get %s: decode record: %w", id, err)
	}

	return record, nil
}

func (r *Repo) Save(ctx context.Context, record gallerd.ImageRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("save %s: encode record: %w", record.ID, err)
	}

	if err := r.client.WithContext(ctx).Set(gallerd.Key(record.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", record.ID, err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	removed, err := r.client.WithContext(ctx).Del(gallerd.Key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	if removed == 0 {
		return gallerd.ErrNotFound
	}

	return nil
}

func (r *Repo) List(ctx context.Context) ([]gallerd.ImageRecord, error) {
	client := r.client.WithContext(ctx)

	var keys []string
	iter := client.Scan(0, gallerd.KeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next() {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list: scan: %w", err)
	}

	records := make([]gallerd.ImageRecord, 0, len(keys))
	if len(keys) == 0 {
		return records, nil
	}

	values, err := client.MGet(keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list: mget: %w", err)
	}

	for i, v := range values {
		// A key deleted between SCAN and MGET comes back nil; skip it.
		data, ok := v.(string)
		if !ok {
			continue
		}

		var record gallerd.ImageRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("list: decode %s: %w", keys[i], err)
		}
		records = append(records, record)
	}

	return records, nil
}
