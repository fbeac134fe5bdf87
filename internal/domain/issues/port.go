package issues

import (
	"context"
	"time"
)

// Source port fetches the complete open-issue set for a repository.
// Implementations are stateless and keep no results across calls.
type Source interface {
	FetchAll(ctx context.Context, key RepoKey) ([]Issue, error)
}

// SnapshotRepository port persists one snapshot per repository key.
type SnapshotRepository interface {
	// Replace deletes the previous snapshot for key and stores the given
	// issues as a single durable unit. Readers observe either the old set
	// or the complete new set, never a mix.
	Replace(ctx context.Context, key RepoKey, scanID string, issues []Issue, at time.Time) error

	// Read returns the stored issues ordered by creation timestamp
	// descending. A never-scanned repository yields nil; a scanned
	// repository with zero open issues yields an empty non-nil slice.
	Read(ctx context.Context, key RepoKey) ([]Issue, error)

	// Exists reports whether at least one scan has completed for key,
	// regardless of whether that snapshot is currently empty.
	Exists(ctx context.Context, key RepoKey) (bool, error)
}

// ArchiveStore port uploads snapshot documents to object storage.
type ArchiveStore interface {
	PutSnapshot(ctx context.Context, key string, snap *Snapshot) (string, error)
}
