package issues

import (
	"fmt"
	"strings"
	"time"
)

// RepoKey identifies a repository as "owner/name".
type RepoKey string

// ParseRepoKey validates the "owner/name" form. Both segments must be
// non-blank after trimming.
func ParseRepoKey(s string) (RepoKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: %q (expected owner/name)", ErrInvalidRepoKey, s)
	}
	return RepoKey(s), nil
}

// Owner returns the segment before the separator.
func (k RepoKey) Owner() string {
	owner, _, _ := strings.Cut(string(k), "/")
	return owner
}

// Name returns the segment after the separator.
func (k RepoKey) Name() string {
	_, name, _ := strings.Cut(string(k), "/")
	return name
}

func (k RepoKey) String() string { return string(k) }

// Issue is one open issue as fetched from the tracker.
type Issue struct {
	ID        int64     `json:"id"`
	Repo      RepoKey   `json:"repo"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt string    `json:"created_at"` // ISO-8601 string from the tracker, ordering key only
	CachedAt  time.Time `json:"cached_at"`
}

// Snapshot is the full open-issue set for one repository at scan time.
type Snapshot struct {
	Repo      RepoKey   `json:"repo"`
	ScanID    string    `json:"scan_id"`
	ScannedAt time.Time `json:"scanned_at"`
	Issues    []Issue   `json:"issues"`
}
