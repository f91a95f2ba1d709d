package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/clarityworks/reflectd/internal/events"
	"github.com/clarityworks/reflectd/internal/orchestrator"
	"github.com/clarityworks/reflectd/internal/store"
)

// jsonError writes a JSON-encoded error response with the given status code.
// Response body format: {"error": "<msg>"}
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// warnOnErr logs a warning if a background store operation fails. Logging
// and metrics must never block or fail the response.
func warnOnErr(op string, err error) {
	if err != nil {
		slog.Warn("store operation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

// observeParams captures the fields recorded for one served request. The
// journal text itself is never part of this — only routing metadata.
type observeParams struct {
	Ctx context.Context

	Mode      string
	Provider  string
	Degraded  bool
	LatencyMs int64
	Status    int
	RequestID string
	Attempts  []orchestrator.Attempt
}

// recordObservability writes a completed request to the metrics registry and
// the request-log store. Each sink is skipped when the dependency is nil.
func recordObservability(d Dependencies, p observeParams) {
	if d.Metrics != nil {
		status := "ok"
		if p.Degraded {
			status = "degraded"
		}
		d.Metrics.RequestsTotal.WithLabelValues(p.Mode, p.Provider, status).Inc()
	}

	if d.Store != nil {
		attempts := ""
		if len(p.Attempts) > 0 {
			if b, err := json.Marshal(p.Attempts); err == nil {
				attempts = string(b)
			}
		}
		warnOnErr("log_request", d.Store.LogRequest(p.Ctx, store.RequestLog{
			Timestamp:  time.Now().UTC(),
			Mode:       p.Mode,
			Provider:   p.Provider,
			Degraded:   p.Degraded,
			LatencyMs:  p.LatencyMs,
			StatusCode: p.Status,
			RequestID:  p.RequestID,
			Attempts:   attempts,
		}))
	}

	if d.EventBus != nil {
		for _, att := range p.Attempts {
			d.EventBus.Publish(events.Event{
				Type:        events.EventProviderAttempt,
				Mode:        p.Mode,
				Provider:    att.Provider,
				Outcome:     string(att.Outcome),
				LatencyMs:   float64(att.LatencyMs),
				RequestID:   p.RequestID,
				ErrorDetail: att.ErrorDetail,
			})
		}
		typ := events.EventRequestServed
		if p.Degraded {
			typ = events.EventRequestDegraded
		}
		d.EventBus.Publish(events.Event{
			Type:      typ,
			Mode:      p.Mode,
			Provider:  p.Provider,
			Degraded:  p.Degraded,
			LatencyMs: float64(p.LatencyMs),
			RequestID: p.RequestID,
		})
	}
}

// methodOnly guards a route to a single HTTP method. Other methods get a 405
// with the Allow header set, as API clients expect.
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}
