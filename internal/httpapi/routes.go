package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarityworks/reflectd/internal/billing"
	"github.com/clarityworks/reflectd/internal/events"
	"github.com/clarityworks/reflectd/internal/health"
	"github.com/clarityworks/reflectd/internal/idempotency"
	"github.com/clarityworks/reflectd/internal/limits"
	"github.com/clarityworks/reflectd/internal/metrics"
	"github.com/clarityworks/reflectd/internal/orchestrator"
	"github.com/clarityworks/reflectd/internal/store"
)

type Dependencies struct {
	Engine  *orchestrator.Engine
	Metrics *metrics.Registry
	Store   store.Store
	Health  *health.Tracker

	// Limiter is nil when Redis is not configured; the summary limit check
	// then answers allowed-with-warning.
	Limiter *limits.Limiter

	// Billing is nil when no payment secret key is configured.
	Billing *billing.Service

	// DefaultOrigin is the checkout redirect base used when the request
	// carries neither an Origin nor a Referer header.
	DefaultOrigin string

	// EventBus feeds the admin live event stream (nil disables it).
	EventBus *events.Bus

	// Idempotency replays repeated Idempotency-Key reflect requests
	// without re-running the provider chain (nil disables it).
	Idempotency *idempotency.ReplayCache

	// AdminToken guards /admin/v1. Empty disables the admin surface.
	AdminToken string
}

func MountRoutes(r chi.Router, d Dependencies) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Zero providers is still healthy: the static template keeps the
		// reflect endpoint functional.
		providers := d.Engine.Providers()
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"providers": len(providers),
		})
	})

	var reflect http.Handler = ReflectHandler(d)
	if d.Idempotency != nil {
		reflect = idempotency.Middleware(d.Idempotency)(reflect)
	}
	r.Handle("/v1/reflect", methodOnly(http.MethodPost, reflect.ServeHTTP))
	r.Handle("/v1/limits/summary", methodOnly(http.MethodPost, SummaryLimitHandler(d)))
	r.Handle("/v1/billing/checkout", methodOnly(http.MethodPost, CheckoutCreateHandler(d)))
	r.Handle("/v1/billing/session", methodOnly(http.MethodGet, SessionVerifyHandler(d)))

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(adminAuth(d.AdminToken))
		r.Get("/requests", RequestLogsHandler(d))
		r.Get("/providers", ProvidersHandler(d))
		if d.EventBus != nil {
			r.Get("/events", SSEHandler(d.EventBus))
		}
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
}
