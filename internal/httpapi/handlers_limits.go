package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

// SummaryLimitRequest is the JSON body for the /v1/limits/summary endpoint.
type SummaryLimitRequest struct {
	DeviceID         string `json:"deviceId"`
	IsPro            bool   `json:"isPro"`
	StripeCustomerID string `json:"stripeCustomerId"`
}

// SummaryLimitResponse mirrors what the journaling client expects. Unlimited
// is reported as remaining -1.
type SummaryLimitResponse struct {
	Allowed   bool   `json:"allowed"`
	Pro       bool   `json:"pro"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt,omitempty"`

	// Populated on denial only.
	Reason          string `json:"reason,omitempty"`
	HoursUntilReset int    `json:"hoursUntilReset,omitempty"`
	Message         string `json:"message,omitempty"`

	// Populated when the limit backend is unavailable and the request was
	// allowed anyway.
	Warning string `json:"warning,omitempty"`
}

func SummaryLimitHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SummaryLimitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}

		deviceID := strings.TrimSpace(req.DeviceID)
		if deviceID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
				Allowed: false,
				Reason:  "missing_device_id",
				Message: "deviceId is required",
			})
			return
		}

		// Paid users are never limited.
		if req.IsPro || strings.TrimSpace(req.StripeCustomerID) != "" {
			_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
				Allowed:   true,
				Pro:       true,
				Remaining: -1,
			})
			return
		}

		// Fail open: a broken limit backend must not block journaling.
		if d.Limiter == nil {
			_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
				Allowed:   true,
				Remaining: -1,
				Warning:   "limit backend not configured",
			})
			return
		}

		dec, err := d.Limiter.Allow(r.Context(), deviceID)
		if err != nil {
			slog.Warn("summary limit check failed", slog.String("error", err.Error()))
			_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
				Allowed:   true,
				Remaining: -1,
				Warning:   "limit backend unavailable",
			})
			return
		}

		if !dec.Allowed {
			hours := int(math.Ceil(time.Until(dec.ResetAt).Hours()))
			if hours < 1 {
				hours = 1
			}
			_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
				Allowed:         false,
				Remaining:       0,
				ResetAt:         dec.ResetAt.UTC().Format(time.RFC3339),
				Reason:          "daily_limit_reached",
				HoursUntilReset: hours,
				Message:         fmt.Sprintf("Daily summary limit reached. Try again in about %d hour(s), or upgrade for unlimited summaries.", hours),
			})
			return
		}

		_ = json.NewEncoder(w).Encode(SummaryLimitResponse{
			Allowed:   true,
			Remaining: dec.Remaining,
			ResetAt:   dec.ResetAt.UTC().Format(time.RFC3339),
		})
	}
}
