package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/issuelens/internal/application"
	appai "github.com/bryanwahyu/issuelens/internal/application/ai"
	appissues "github.com/bryanwahyu/issuelens/internal/application/issues"
	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
)

type fakeSource struct {
	issues []domain.Issue
	err    error
	calls  int
}

func (f *fakeSource) FetchAll(ctx context.Context, key domain.RepoKey) ([]domain.Issue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

type memSnapshots struct {
	snaps map[domain.RepoKey][]domain.Issue
}

func (m *memSnapshots) Replace(ctx context.Context, key domain.RepoKey, scanID string, issues []domain.Issue, at time.Time) error {
	m.snaps[key] = issues
	return nil
}

func (m *memSnapshots) Read(ctx context.Context, key domain.RepoKey) ([]domain.Issue, error) {
	stored, ok := m.snaps[key]
	if !ok {
		return nil, nil
	}
	if stored == nil {
		stored = []domain.Issue{}
	}
	return stored, nil
}

func (m *memSnapshots) Exists(ctx context.Context, key domain.RepoKey) (bool, error) {
	_, ok := m.snaps[key]
	return ok, nil
}

type fakeBackend struct {
	output string
	err    error
}

func (f *fakeBackend) Complete(ctx context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type fixture struct {
	source  *fakeSource
	snaps   *memSnapshots
	backend *fakeBackend
	handler http.Handler
}

func newFixture(configured bool) *fixture {
	f := &fixture{
		source:  &fakeSource{},
		snaps:   &memSnapshots{snaps: map[domain.RepoKey][]domain.Issue{}},
		backend: &fakeBackend{output: "analysis text"},
	}
	analyzer := appai.NewService(f.backend)
	if !configured {
		analyzer = appai.NewService(nil)
	}
	svc := &appissues.Service{
		Source:    f.source,
		Snapshots: f.snaps,
		Analyzer:  analyzer,
		Clock:     application.SystemClock{},
	}
	f.handler = NewRouter(svc, Options{})
	return f
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestScanEndpoint(t *testing.T) {
	f := newFixture(true)
	f.source.issues = []domain.Issue{
		{ID: 1, Title: "t", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: 2, Title: "u", CreatedAt: "2024-02-01T00:00:00Z"},
	}

	rec := postJSON(t, f.handler, "/scan", map[string]string{"repo": "a/b"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Repo               string `json:"repo"`
		IssuesFetched      int    `json:"issues_fetched"`
		CachedSuccessfully bool   `json:"cached_successfully"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a/b", resp.Repo)
	assert.Equal(t, 2, resp.IssuesFetched)
	assert.True(t, resp.CachedSuccessfully)
}

func TestScanEndpointInvalidRepo(t *testing.T) {
	f := newFixture(true)

	rec := postJSON(t, f.handler, "/scan", map[string]string{"repo": "not-a-repo"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "Invalid repository format", payload.Error)
	assert.Zero(t, f.source.calls, "validation rejects before any network call")
}

func TestScanEndpointFetchErrors(t *testing.T) {
	testCases := []struct {
		name   string
		err    *domain.FetchError
		status int
	}{
		{
			name:   "repository not found",
			err:    &domain.FetchError{Kind: domain.FetchNotFound, Detail: `repository "a/b" not found`},
			status: http.StatusNotFound,
		},
		{
			name:   "rate limited",
			err:    &domain.FetchError{Kind: domain.FetchRateLimited, Detail: "GitHub API rate limit exceeded"},
			status: http.StatusTooManyRequests,
		},
		{
			name:   "remote failure",
			err:    &domain.FetchError{Kind: domain.FetchRemote, Status: 500, Detail: "GitHub API error: 500"},
			status: http.StatusBadGateway,
		},
		{
			name:   "timeout",
			err:    &domain.FetchError{Kind: domain.FetchTimeout, Detail: "GitHub API request timed out"},
			status: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(true)
			f.source.err = tc.err

			rec := postJSON(t, f.handler, "/scan", map[string]string{"repo": "a/b"})

			require.Equal(t, tc.status, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, tc.err.Detail, payload.Error)
			assert.Equal(t, "Failed to fetch issues from GitHub API", payload.Details)
		})
	}
}

func TestAnalyzeEndpointGate(t *testing.T) {
	f := newFixture(true)

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "summarize"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "Repository not yet scanned", payload.Error)
	assert.Contains(t, payload.Details, "/scan")
}

func TestAnalyzeEndpointEmptyPrompt(t *testing.T) {
	f := newFixture(true)

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "  "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Empty prompt", decodeError(t, rec).Error)
}

func TestAnalyzeEndpointSuccess(t *testing.T) {
	f := newFixture(true)
	f.snaps.snaps["a/b"] = []domain.Issue{{ID: 1, Title: "t", CreatedAt: "2024-01-01T00:00:00Z"}}

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "summarize"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "analysis text", resp["analysis"])
}

func TestAnalyzeEndpointEmptySnapshot(t *testing.T) {
	f := newFixture(true)
	f.snaps.snaps["a/b"] = []domain.Issue{}

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "summarize"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The repository 'a/b' has no open issues to analyze.", resp["analysis"])
}

func TestAnalyzeEndpointNotConfigured(t *testing.T) {
	f := newFixture(false)
	f.snaps.snaps["a/b"] = []domain.Issue{{ID: 1, Title: "t"}}

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "summarize"})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Analysis backend not configured", decodeError(t, rec).Error)
}

func TestAnalyzeEndpointBackendFailure(t *testing.T) {
	f := newFixture(true)
	f.snaps.snaps["a/b"] = []domain.Issue{{ID: 1, Title: "t"}}
	f.backend.err = errors.New("backend down")

	rec := postJSON(t, f.handler, "/analyze", map[string]string{"repo": "a/b", "prompt": "summarize"})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "LLM analysis error", decodeError(t, rec).Error)
}

func TestRootEndpoint(t *testing.T) {
	f := newFixture(true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestLivenessEndpoint(t *testing.T) {
	f := newFixture(true)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "scans_total")
	assert.Contains(t, resp, "analyses_total")
}

func TestScanEndpointRejectsNonJSONBody(t *testing.T) {
	f := newFixture(true)

	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader([]byte("repo=a/b")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestAPIKeyAuthOption(t *testing.T) {
	f := &fixture{
		source:  &fakeSource{},
		snaps:   &memSnapshots{snaps: map[domain.RepoKey][]domain.Issue{}},
		backend: &fakeBackend{output: "x"},
	}
	svc := &appissues.Service{
		Source:    f.source,
		Snapshots: f.snaps,
		Analyzer:  appai.NewService(f.backend),
		Clock:     application.SystemClock{},
	}
	handler := NewRouter(svc, Options{APIKeys: map[string]string{"ci": "secret"}})

	t.Run("missing key rejected", func(t *testing.T) {
		rec := postJSON(t, handler, "/scan", map[string]string{"repo": "a/b"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key accepted", func(t *testing.T) {
		data, _ := json.Marshal(map[string]string{"repo": "a/b"})
		req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
