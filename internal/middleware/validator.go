package middleware

import (
	"net/http"
	"strings"
)

// Request body sanitization for the JSON endpoints.

// maxBodyBytes caps request bodies well above any legitimate scan/analyze
// payload.
const maxBodyBytes = 1 << 20 // 1 MiB

// RequireJSON rejects mutating requests without a JSON content type and
// bounds the request body size before handlers decode it.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}
