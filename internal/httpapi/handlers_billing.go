package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// CheckoutCreateRequest optionally overrides the origin the success/cancel
// pages hang off. When absent the request's Origin (then Referer) is used.
type CheckoutCreateRequest struct {
	Origin string `json:"origin"`
}

// resolveOrigin picks the site origin for checkout redirect URLs.
func resolveOrigin(r *http.Request, bodyOrigin, fallback string) string {
	if o := strings.TrimSpace(bodyOrigin); o != "" {
		return strings.TrimRight(o, "/")
	}
	if o := r.Header.Get("Origin"); o != "" {
		return strings.TrimRight(o, "/")
	}
	if ref := r.Header.Get("Referer"); ref != "" {
		// Keep scheme://host only.
		if i := strings.Index(ref, "//"); i >= 0 {
			rest := ref[i+2:]
			if j := strings.IndexByte(rest, '/'); j >= 0 {
				return ref[:i+2] + rest[:j]
			}
		}
		return strings.TrimRight(ref, "/")
	}
	return strings.TrimRight(fallback, "/")
}

func CheckoutCreateHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Billing == nil {
			jsonError(w, "payments are not configured", http.StatusInternalServerError)
			return
		}

		var req CheckoutCreateRequest
		// The body is optional; a missing or empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)

		origin := resolveOrigin(r, req.Origin, d.DefaultOrigin)
		if origin == "" {
			jsonError(w, "origin is required", http.StatusBadRequest)
			return
		}

		sess, err := d.Billing.CreateSession(r.Context(), origin)
		if err != nil {
			slog.Error("checkout session create failed", slog.String("error", err.Error()))
			jsonError(w, "failed to create checkout session", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(sess)
	}
}

func SessionVerifyHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Billing == nil {
			jsonError(w, "payments are not configured", http.StatusInternalServerError)
			return
		}

		sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
		if sessionID == "" {
			jsonError(w, "session_id is required", http.StatusBadRequest)
			return
		}

		v, err := d.Billing.VerifySession(r.Context(), sessionID)
		if err != nil {
			slog.Error("checkout session verify failed", slog.String("error", err.Error()))
			jsonError(w, "failed to verify checkout session", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}
