package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"gallerd"
)

// BearerAuth enforces the shared gallery API key via the Authorization
// header. Pass an empty key to disable the check (public access). The key
// is a fixed public anonymous token, not a per-user credential; any caller
// holding it can upload, list and delete.
func BearerAuth(apiKey string) func(http.Handler) http.Handler {
	if apiKey == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// SignedURLAuth verifies SigV4 presigned blob requests. Pass nil to
// disable the route entirely (the router skips mounting it).
func SignedURLAuth(verifier *gallerd.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Copy headers and add Host (Go stores Host separately from Header)
			headers := r.Header.Clone()
			headers.Set("Host", r.Host)

			if err := verifier.Verify(r.Method, r.URL.Path, r.URL.Query(), headers); err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
