package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// adminAuth guards the admin surface with a bearer token, compared in
// constant time. An empty configured token disables the surface entirely.
func adminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				jsonError(w, "admin API disabled", http.StatusNotFound)
				return
			}
			provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				jsonError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogsHandler returns the persisted request log, newest first.
// Supports ?limit= and ?offset= query params.
func RequestLogsHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			_ = json.NewEncoder(w).Encode(map[string]any{"logs": []any{}})
			return
		}

		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		logs, err := d.Store.ListRequestLogs(r.Context(), limit, offset)
		if err != nil {
			jsonError(w, "failed to list request logs", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"logs": logs})
	}
}

// ProvidersHandler reports the configured fallback chain together with each
// provider's runtime health snapshot.
func ProvidersHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type providerStatus struct {
			Provider string `json:"provider"`
			Position int    `json:"position"`
			Health   any    `json:"health,omitempty"`
		}

		ids := d.Engine.Providers()
		out := make([]providerStatus, 0, len(ids))
		for i, id := range ids {
			ps := providerStatus{Provider: id, Position: i}
			if d.Health != nil {
				if stats, ok := d.Health.Get(id); ok {
					ps.Health = stats
				}
			}
			out = append(out, ps)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"providers": out})
	}
}
