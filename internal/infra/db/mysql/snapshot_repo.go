package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Replace swaps the cached snapshot for one repository inside a single
// transaction. The delete, inserts and scan-history upsert commit together,
// so readers see either the previous set or the complete new one.
func (r *SnapshotRepository) Replace(ctx context.Context, key domain.RepoKey, scanID string, issues []domain.Issue, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE repo=?`, key); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}

	const ins = `
INSERT INTO issues (id, repo, title, body, html_url, created_at, cached_at)
VALUES (?,?,?,?,?,?,?);
`
	for _, is := range issues {
		if _, err := tx.ExecContext(ctx, ins,
			is.ID, key, is.Title, is.Body, is.HTMLURL, is.CreatedAt, at,
		); err != nil {
			return &domain.StoreError{Op: "replace", Err: err}
		}
	}

	const mark = `
INSERT INTO repo_scans (repo, scan_id, scanned_at, issue_count)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
 scan_id=VALUES(scan_id), scanned_at=VALUES(scanned_at), issue_count=VALUES(issue_count);
`
	if _, err := tx.ExecContext(ctx, mark, key, scanID, at, len(issues)); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}
	return nil
}

// Read returns the snapshot ordered newest-first by creation timestamp.
// A repository that has never been scanned yields nil; a scanned repository
// with no open issues yields an empty non-nil slice.
func (r *SnapshotRepository) Read(ctx context.Context, key domain.RepoKey) ([]domain.Issue, error) {
	var scanned int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM repo_scans WHERE repo=? LIMIT 1`, key,
	).Scan(&scanned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}

	const q = `
SELECT id, repo, title, body, html_url, created_at, cached_at
FROM issues
WHERE repo=?
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, key)
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}
	defer rows.Close()

	out := []domain.Issue{}
	for rows.Next() {
		var is domain.Issue
		var body sql.NullString
		if err := rows.Scan(
			&is.ID, &is.Repo, &is.Title, &body, &is.HTMLURL, &is.CreatedAt, &is.CachedAt,
		); err != nil {
			return nil, &domain.StoreError{Op: "read", Err: err}
		}
		is.Body = body.String
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}
	return out, nil
}

// Exists reports whether at least one scan completed for key, empty
// snapshots included.
func (r *SnapshotRepository) Exists(ctx context.Context, key domain.RepoKey) (bool, error) {
	var scanned int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM repo_scans WHERE repo=? LIMIT 1`, key,
	).Scan(&scanned)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &domain.StoreError{Op: "exists", Err: err}
	}
	return true, nil
}
