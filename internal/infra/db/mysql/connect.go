package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
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
  repo        VARCHAR(255) NOT NULL,
  scan_id     CHAR(36)     NOT NULL,
  scanned_at  TIMESTAMP    NOT NULL,
  issue_count INT          NOT NULL DEFAULT 0,
  PRIMARY KEY (repo)
);`,
		`CREATE TABLE IF NOT EXISTS issues (
  id         BIGINT       NOT NULL,
  repo       VARCHAR(255) NOT NULL,
  title      TEXT         NOT NULL,
  body       MEDIUMTEXT,
  html_url   TEXT         NOT NULL,
  created_at VARCHAR(64)  NOT NULL,
  cached_at  TIMESTAMP    NOT NULL,
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
