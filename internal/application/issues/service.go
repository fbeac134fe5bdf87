package issues

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/issuelens/internal/application"
	appai "github.com/bryanwahyu/issuelens/internal/application/ai"
	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
	"github.com/bryanwahyu/issuelens/internal/logging"
)

// Service implements the scan and analyze use-cases. It is safe for
// concurrent use; each call runs independently and concurrent scans of the
// same repository resolve last-writer-wins through the snapshot replace.
type Service struct {
	Source    domain.Source
	Snapshots domain.SnapshotRepository
	Analyzer  *appai.Service
	Archive   domain.ArchiveStore // optional; nil disables archiving
	Clock     application.Clock
}

// ScanResult mirrors the scan response payload.
type ScanResult struct {
	Repo               string `json:"repo"`
	IssuesFetched      int    `json:"issues_fetched"`
	CachedSuccessfully bool   `json:"cached_successfully"`
}

// Scan fetches every open issue for the repository and replaces its cached
// snapshot. A fetch or store failure leaves the previous snapshot state in
// place and is reported to the caller; nothing is retried here.
func (s *Service) Scan(ctx context.Context, repo string) (ScanResult, error) {
	key, err := domain.ParseRepoKey(repo)
	if err != nil {
		return ScanResult{}, err
	}

	logging.Info("scanning repository", "repo", key.String())

	fetched, err := s.Source.FetchAll(ctx, key)
	if err != nil {
		logging.Error("failed to fetch issues", "repo", key.String(), "error", err)
		return ScanResult{Repo: key.String()}, err
	}

	scanID := uuid.New().String()
	now := s.Clock.Now()
	if err := s.Snapshots.Replace(ctx, key, scanID, fetched, now); err != nil {
		logging.Error("failed to cache issues", "repo", key.String(), "error", err)
		return ScanResult{Repo: key.String(), IssuesFetched: len(fetched)}, err
	}

	logging.Info("scanned and cached issues",
		"repo", key.String(), "count", len(fetched), "scan_id", scanID)

	// Archiving is best-effort; the snapshot is already durable.
	if s.Archive != nil {
		snap := &domain.Snapshot{Repo: key, ScanID: scanID, ScannedAt: now, Issues: fetched}
		archiveKey := fmt.Sprintf("%s/%s.json", key.String(), scanID)
		if _, err := s.Archive.PutSnapshot(ctx, archiveKey, snap); err != nil {
			logging.Warn("snapshot archive upload failed", "repo", key.String(), "error", err)
		}
	}

	return ScanResult{
		Repo:               key.String(),
		IssuesFetched:      len(fetched),
		CachedSuccessfully: true,
	}, nil
}

// Analyze runs the user prompt against the cached snapshot. A repository
// that has never been scanned is rejected before any read or backend call.
func (s *Service) Analyze(ctx context.Context, repo, userPrompt string) (string, error) {
	key, err := domain.ParseRepoKey(repo)
	if err != nil {
		return "", err
	}
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", domain.ErrEmptyPrompt
	}

	exists, err := s.Snapshots.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: scan %q first", domain.ErrNotScanned, key.String())
	}

	cached, err := s.Snapshots.Read(ctx, key)
	if err != nil {
		return "", err
	}
	if cached == nil {
		// The snapshot vanished between the gate and the read.
		return "", fmt.Errorf("%w: scan %q first", domain.ErrNotScanned, key.String())
	}

	if len(cached) == 0 {
		return fmt.Sprintf("The repository '%s' has no open issues to analyze.", key.String()), nil
	}

	logging.Info("analyzing repository", "repo", key.String(), "issues", len(cached))
	return s.Analyzer.Analyze(ctx, cached, userPrompt)
}
