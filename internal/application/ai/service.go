package ai

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	domai "github.com/bryanwahyu/issuelens/internal/domain/ai"
	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
	"github.com/bryanwahyu/issuelens/internal/infra/ai/prompt"
	"github.com/bryanwahyu/issuelens/internal/logging"
)

const (
	// truncateThreshold is the input size past which issues are dropped.
	truncateThreshold = 100
	// truncateKeep is how many issues (in input order) survive truncation.
	truncateKeep = 50

	// maxAttempts bounds backend calls per analysis: one retry, no delay.
	maxAttempts = 2
)

// Service submits cached issues to the chat backend. It holds no state
// between calls.
type Service struct {
	Client domai.Client
}

func NewService(client domai.Client) *Service {
	return &Service{Client: client}
}

// Analyze formats the issues, composes the system/user messages and calls
// the backend with a bounded retry. Inputs larger than truncateThreshold are
// cut to the first truncateKeep issues; the caller is not told which were
// dropped.
func (s *Service) Analyze(ctx context.Context, issues []domain.Issue, userPrompt string) (string, error) {
	if s.Client == nil {
		return "", domai.ErrNotConfigured
	}

	if len(issues) > truncateThreshold {
		logging.Warn("too many issues for analysis, truncating",
			"total", len(issues), "kept", truncateKeep)
		issues = issues[:truncateKeep]
	}

	system := prompt.GetSystemPrompt()
	user := prompt.GetUserPrompt(userPrompt, issues)

	logging.Info("submitting issues for analysis", "count", len(issues))

	attempts := 0
	operation := func() (string, error) {
		attempts++
		out, err := s.Client.Complete(ctx, system, user)
		if err != nil {
			logging.Warn("backend attempt failed", "attempt", attempts, "error", err)
		}
		return out, err
	}

	analysis, err := backoff.RetryWithData(operation,
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxAttempts-1))
	if err != nil {
		return "", &domai.BackendError{Attempts: attempts, Err: err}
	}
	return analysis, nil
}
