package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
)

type SnapshotRepository struct{ db *sql.DB }

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the snapshot schema when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS repo_scans (
  repo        TEXT        PRIMARY KEY,
  scan_id     CHAR(36)    NOT NULL,
  scanned_at  TIMESTAMPTZ NOT NULL,
  issue_count INT         NOT NULL DEFAULT 0
);`,
		`CREATE TABLE IF NOT EXISTS issues (
  id         BIGINT      NOT NULL,
  repo       TEXT        NOT NULL,
  title      TEXT        NOT NULL,
  body       TEXT,
  html_url   TEXT        NOT NULL,
  created_at VARCHAR(64) NOT NULL,
  cached_at  TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (repo, id)
);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the cached snapshot for one repository inside a single
// transaction.
func (r *SnapshotRepository) Replace(ctx context.Context, key domain.RepoKey, scanID string, issues []domain.Issue, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM issues WHERE repo=$1`, key); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}

	const ins = `
INSERT INTO issues (id, repo, title, body, html_url, created_at, cached_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
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
VALUES ($1,$2,$3,$4)
ON CONFLICT (repo) DO UPDATE SET
 scan_id = EXCLUDED.scan_id,
 scanned_at = EXCLUDED.scanned_at,
 issue_count = EXCLUDED.issue_count;
`
	if _, err := tx.ExecContext(ctx, mark, key, scanID, at, len(issues)); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "replace", Err: err}
	}
	return nil
}

// Read returns the snapshot ordered newest-first by creation timestamp;
// nil when the repository was never scanned.
func (r *SnapshotRepository) Read(ctx context.Context, key domain.RepoKey) ([]domain.Issue, error) {
	var scanned int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM repo_scans WHERE repo=$1 LIMIT 1`, key,
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
WHERE repo=$1
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

// Exists reports whether at least one scan completed for key.
func (r *SnapshotRepository) Exists(ctx context.Context, key domain.RepoKey) (bool, error) {
	var scanned int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM repo_scans WHERE repo=$1 LIMIT 1`, key,
	).Scan(&scanned)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &domain.StoreError{Op: "exists", Err: err}
	}
	return true, nil
}
