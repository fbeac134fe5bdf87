package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appissues "github.com/bryanwahyu/issuelens/internal/application/issues"
	domai "github.com/bryanwahyu/issuelens/internal/domain/ai"
	domain "github.com/bryanwahyu/issuelens/internal/domain/issues"
	"github.com/bryanwahyu/issuelens/internal/middleware"
)

type Router struct {
	svc *appissues.Service
}

// Options configures the optional middleware around the core endpoints.
type Options struct {
	APIKeys        map[string]string // non-empty enables API key auth
	RateLimit      int               // requests per second per client, 0 disables
	HealthCheckers map[string]middleware.HealthChecker
}

func NewRouter(svc *appissues.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.RequireJSON)
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit, opts.RateLimit))
	}
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}

	mux.Get("/", r.handleRoot)
	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Post("/scan", r.wrap(r.handleScan))
	mux.Post("/analyze", r.wrap(r.handleAnalyze))

	return mux
}

// errorPayload is the structured error body for every failure.
type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps service errors onto stable categories and HTTP statuses. Raw
// storage and network faults never leak past their classification.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		status, payload := classifyError(err)
		writeJSON(w, status, payload)
	}
}

func classifyError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, domain.ErrInvalidRepoKey):
		return http.StatusBadRequest, errorPayload{
			Error:   "Invalid repository format",
			Details: "Repository must be in format 'owner/repository-name'",
		}
	case errors.Is(err, domain.ErrEmptyPrompt):
		return http.StatusBadRequest, errorPayload{
			Error:   "Empty prompt",
			Details: "Analysis prompt cannot be empty",
		}
	case errors.Is(err, domain.ErrNotScanned):
		return http.StatusBadRequest, errorPayload{
			Error:   "Repository not yet scanned",
			Details: "Please scan the repository first using the /scan endpoint",
		}
	case errors.Is(err, domai.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Error:   "Analysis backend not configured",
			Details: "Set GROQ_API_KEY to enable analysis",
		}
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, errorPayload{
			Error:   "AI quota exceeded",
			Details: "The analysis backend rejected the request due to rate limits",
		}
	}

	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		details := "Failed to fetch issues from GitHub API"
		switch fetchErr.Kind {
		case domain.FetchNotFound:
			return http.StatusNotFound, errorPayload{Error: fetchErr.Detail, Details: details}
		case domain.FetchRateLimited:
			return http.StatusTooManyRequests, errorPayload{Error: fetchErr.Detail, Details: details}
		default:
			return http.StatusBadGateway, errorPayload{Error: fetchErr.Detail, Details: details}
		}
	}

	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Op == "replace" {
			return http.StatusInternalServerError, errorPayload{
				Error:   "Failed to cache issues",
				Details: "Issues were fetched but could not be saved to database",
			}
		}
		return http.StatusInternalServerError, errorPayload{
			Error:   "Failed to retrieve cached issues",
			Details: "Issues exist but could not be loaded from database",
		}
	}

	var backendErr *domai.BackendError
	if errors.As(err, &backendErr) {
		return http.StatusBadGateway, errorPayload{
			Error:   "LLM analysis error",
			Details: "Failed to analyze issues with LLM",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Error:   "Internal error",
		Details: "An unexpected error occurred",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "GitHub Issue Analyzer",
		"version": "1.0.0",
	})
}

// POST /scan
// Body: {"repo": "owner/name"}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Repo string `json:"repo"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error:   "Invalid request body",
			Details: "Body must be JSON with a 'repo' field",
		})
		return nil
	}

	middleware.IncrementScans()
	result, err := r.svc.Scan(req.Context(), body.Repo)
	if err != nil {
		middleware.IncrementScansFailed()
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}

// POST /analyze
// Body: {"repo": "owner/name", "prompt": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Repo   string `json:"repo"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error:   "Invalid request body",
			Details: "Body must be JSON with 'repo' and 'prompt' fields",
		})
		return nil
	}

	middleware.IncrementAnalyses()
	analysis, err := r.svc.Analyze(req.Context(), body.Repo, body.Prompt)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
	return nil
}
