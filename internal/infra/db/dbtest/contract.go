// Package dbtest holds a snapshot-repository contract suite shared by the
// in-memory test double and the SQL implementations, so every backend agrees
// on the never-scanned vs empty-snapshot distinction and read ordering.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
)

// RunSnapshotContract exercises repo against the behavior every
// SnapshotRepository must share. Each subtest uses its own repository key,
// so the suite is safe to run against a shared database.
func RunSnapshotContract(t *testing.T, repo domain.SnapshotRepository) {
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	freshKey := func() domain.RepoKey {
		return domain.RepoKey("contract/" + uuid.New().String())
	}

	t.Run("never scanned", func(t *testing.T) {
		key := freshKey()

		exists, err := repo.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)

		stored, err := repo.Read(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("empty scan still counts as scanned", func(t *testing.T) {
		key := freshKey()
		require.NoError(t, repo.Replace(ctx, key, uuid.NewString(), []domain.Issue{}, at))

		exists, err := repo.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)

		stored, err := repo.Read(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Empty(t, stored)
	})

	t.Run("read returns newest first", func(t *testing.T) {
		key := freshKey()
		issues := []domain.Issue{
			{ID: 1, Title: "middle", HTMLURL: "https://x/1", CreatedAt: "2024-02-01T00:00:00Z"},
			{ID: 2, Title: "newest", HTMLURL: "https://x/2", CreatedAt: "2024-03-01T00:00:00Z"},
			{ID: 3, Title: "oldest", HTMLURL: "https://x/3", CreatedAt: "2024-01-01T00:00:00Z"},
		}
		require.NoError(t, repo.Replace(ctx, key, uuid.NewString(), issues, at))

		stored, err := repo.Read(ctx, key)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, "newest", stored[0].Title)
		assert.Equal(t, "middle", stored[1].Title)
		assert.Equal(t, "oldest", stored[2].Title)
	})

	t.Run("replace discards the previous snapshot", func(t *testing.T) {
		key := freshKey()
		first := []domain.Issue{
			{ID: 1, Title: "old a", HTMLURL: "https://x/1", CreatedAt: "2024-01-01T00:00:00Z"},
			{ID: 2, Title: "old b", HTMLURL: "https://x/2", CreatedAt: "2024-01-02T00:00:00Z"},
		}
		require.NoError(t, repo.Replace(ctx, key, uuid.NewString(), first, at))

		second := []domain.Issue{
			{ID: 7, Title: "only", HTMLURL: "https://x/7", CreatedAt: "2024-04-01T00:00:00Z"},
		}
		require.NoError(t, repo.Replace(ctx, key, uuid.NewString(), second, at.Add(time.Hour)))

		stored, err := repo.Read(ctx, key)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, int64(7), stored[0].ID)
		assert.Equal(t, "only", stored[0].Title)
	})

	t.Run("keys do not interfere", func(t *testing.T) {
		keyA, keyB := freshKey(), freshKey()
		require.NoError(t, repo.Replace(ctx, keyA, uuid.NewString(), []domain.Issue{
			{ID: 1, Title: "a", HTMLURL: "https://x/1", CreatedAt: "2024-01-01T00:00:00Z"},
		}, at))

		exists, err := repo.Exists(ctx, keyB)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.Replace(ctx, keyB, uuid.NewString(), []domain.Issue{}, at))
		stored, err := repo.Read(ctx, keyA)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}
