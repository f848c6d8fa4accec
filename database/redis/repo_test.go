package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallerd"
	"gallerd/database/redis"
)

// setupTestRepo connects to a local redis, skipping the test when none is
// reachable. Set GALLERD_TEST_REDIS to point at a different instance.
func setupTestRepo(t *testing.T) *redis.Repo {
	t.Helper()

	addr := os.Getenv("GALLERD_TEST_REDIS")
	if addr == "" {
		addr = "localhost:6379"
	}

	repo := redis.New(addr, "", 15) // db 15 to keep clear of real data
	if err := repo.Ping(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func testRecord(id, month string) gallerd.ImageRecord {
	return gallerd.ImageRecord{
		ID:        id,
		FilePath:  month + "/" + id,
		URL:       "https://example.com/blob/" + month + "/" + id,
		Date:      month + "-15T10:30:00Z",
		MonthYear: month,
	}
}

func TestRepo_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	record := testRecord("1710498600000-k3x9p2.jpg", "2024-03")
	require.NoError(t, repo.Save(ctx, record))
	defer func() { _ = repo.Delete(ctx, record.ID) }()

	got, err := repo.Get(ctx, record.ID)
	assert.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "definitely-missing.jpg")
	assert.ErrorIs(t, err, gallerd.ErrNotFound)
}

func TestRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	record := testRecord("delete-me.jpg", "2024-03")
	require.NoError(t, repo.Save(ctx, record))
	assert.NoError(t, repo.Delete(ctx, record.ID))

	_, err := repo.Get(ctx, record.ID)
	assert.ErrorIs(t, err, gallerd.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, record.ID), gallerd.ErrNotFound)
}

func TestRepo_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	records := []gallerd.ImageRecord{
		testRecord("list-a.jpg", "2024-03"),
		testRecord("list-b.jpg", "2024-11"),
		testRecord("list-c.jpg", "2023-12"),
	}
	for _, r := range records {
		require.NoError(t, repo.Save(ctx, r))
	}
	defer func() {
		for _, r := range records {
			_ = repo.Delete(ctx, r.ID)
		}
	}()

	got, err := repo.List(ctx)
	assert.NoError(t, err)

	// Other keys may exist in the test db; check ours are all present.
	byID := make(map[string]gallerd.ImageRecord, len(got))
	for _, r := range got {
		byID[r.ID] = r
	}
	for _, want := range records {
		assert.Equal(t, want, byID[want.ID])
	}
}
