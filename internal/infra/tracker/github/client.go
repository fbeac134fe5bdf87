// Package github fetches repository issues from the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
	"github.com/bryanwahyu/issuelens/internal/logging"
)

const (
	// perPage is GitHub's maximum page size for the issues listing endpoint.
	perPage = 100

	// requestTimeout bounds each page request.
	requestTimeout = 30 * time.Second

	userAgent = "issuelens"
)

// Client fetches open issues through the GitHub REST API. It keeps no state
// between calls.
type Client struct {
	gh       *gh.Client
	hasToken bool
	timeout  time.Duration
}

// NewClient builds a GitHub client. An empty token is allowed; requests are
// then unauthenticated and subject to the lower anonymous rate limit.
// baseURL overrides the API endpoint and is empty outside of tests.
func NewClient(token, baseURL string) (*Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := gh.NewClient(httpClient)
	client.UserAgent = userAgent
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsed
	}

	return &Client{gh: client, hasToken: token != "", timeout: requestTimeout}, nil
}

// FetchAll retrieves every open issue for the repository, walking pages in
// increasing order until a page comes back shorter than the page size.
// Pull requests, which GitHub also returns on this endpoint, are filtered
// out. Any page failure is terminal: no partial results are returned.
func (c *Client) FetchAll(ctx context.Context, key domain.RepoKey) ([]domain.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State: "open",
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	out := []domain.Issue{}
	for page := 1; ; page++ {
		opts.Page = page
		logging.Debug("fetching issues page", "repo", key.String(), "page", page)

		pageCtx, cancel := context.WithTimeout(ctx, c.timeout)
		pageIssues, _, err := c.gh.Issues.ListByRepo(pageCtx, key.Owner(), key.Name(), opts)
		cancel()
		if err != nil {
			return nil, c.classify(key, err)
		}

		for _, is := range pageIssues {
			if is.IsPullRequest() {
				continue
			}
			out = append(out, toDomain(key, is))
		}

		if len(pageIssues) < perPage {
			break
		}
	}

	logging.Info("fetched open issues", "repo", key.String(), "count", len(out))
	return out, nil
}

// classify maps a go-github call failure onto the fetch error taxonomy.
func (c *Client) classify(key domain.RepoKey, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return c.rateLimited(err)
	case errors.As(err, &respErr):
		status := respErr.Response.StatusCode
		switch status {
		case 403, 429:
			return c.rateLimited(err)
		case 404:
			return &domain.FetchError{
				Kind:   domain.FetchNotFound,
				Detail: fmt.Sprintf("repository %q not found", key.String()),
				Err:    err,
			}
		default:
			return &domain.FetchError{
				Kind:   domain.FetchRemote,
				Status: status,
				Detail: fmt.Sprintf("GitHub API error: %d", status),
				Err:    err,
			}
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.FetchError{
			Kind:   domain.FetchTimeout,
			Detail: "GitHub API request timed out",
			Err:    err,
		}
	default:
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return &domain.FetchError{
				Kind:   domain.FetchTimeout,
				Detail: "GitHub API request timed out",
				Err:    err,
			}
		}
		return &domain.FetchError{
			Kind:   domain.FetchNetwork,
			Detail: fmt.Sprintf("network error while fetching issues: %v", err),
			Err:    err,
		}
	}
}

func (c *Client) rateLimited(err error) error {
	detail := "GitHub API rate limit exceeded"
	if !c.hasToken {
		detail += ". Set GITHUB_TOKEN for higher limits"
	}
	return &domain.FetchError{Kind: domain.FetchRateLimited, Detail: detail, Err: err}
}

func toDomain(key domain.RepoKey, is *gh.Issue) domain.Issue {
	created := ""
	if is.CreatedAt != nil {
		created = is.GetCreatedAt().UTC().Format(time.RFC3339)
	}
	return domain.Issue{
		ID:        is.GetID(),
		Repo:      key,
		Title:     is.GetTitle(),
		Body:      is.GetBody(), // nil body normalizes to ""
		HTMLURL:   is.GetHTMLURL(),
		CreatedAt: created,
	}
}
