// Package orchestrator implements the first-valid-wins fallback chain over
// the configured provider adapters. The engine iterates the registry in
// configured order, validates each raw output for the requested mode, and
// returns the first valid result; when every attempt fails it degrades to
// the static template. Provider-side failures never escape this package.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/clarityworks/reflectd/internal/health"
	"github.com/clarityworks/reflectd/internal/metrics"
	"github.com/clarityworks/reflectd/internal/reflection"
)

// Adapter is the capability each provider backend exposes: one outbound
// completion call per invocation, raw text out, no internal retries.
type Adapter interface {
	ID() string
	Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

// Outcome classifies a single provider attempt.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeHTTPError  Outcome = "http_error"
	OutcomeParseError Outcome = "parse_error"
)

// Attempt records one provider try for observability. Attempts live only for
// the duration of the request.
type Attempt struct {
	Provider    string  `json:"provider"`
	Outcome     Outcome `json:"outcome"`
	LatencyMs   int64   `json:"latency_ms"`
	ErrorDetail string  `json:"error_detail,omitempty"`
}

// Result is the orchestrator's answer. Exactly one of Reflection or Summary
// is populated, per Mode. Degraded is true when the static template was
// served because no provider produced a valid result.
type Result struct {
	Mode         reflection.Mode
	Reflection   *reflection.Structured
	Summary      string
	ProviderUsed string
	Degraded     bool
	Attempts     []Attempt
}

// Engine holds the ordered provider registry. Registration happens once at
// startup; Resolve is safe for concurrent use.
type Engine struct {
	entries []entry
	logger  *slog.Logger
	metrics *metrics.Registry
	health  *health.Tracker
}

type entry struct {
	adapter Adapter
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the attempt logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics attaches Prometheus collectors for attempt accounting.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithHealth attaches a health tracker fed by attempt outcomes.
func WithHealth(h *health.Tracker) Option {
	return func(e *Engine) { e.health = h }
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Register appends an adapter to the chain. Order of registration is the
// order of attempts: first-configured-first-tried, never load-balanced.
func (e *Engine) Register(a Adapter, timeout time.Duration) {
	e.entries = append(e.entries, entry{adapter: a, timeout: timeout})
}

// Providers returns the registered adapter IDs in attempt order.
func (e *Engine) Providers() []string {
	ids := make([]string, len(e.entries))
	for i, en := range e.entries {
		ids[i] = en.adapter.ID()
	}
	return ids
}

// Resolve runs the fallback chain for the given prompts and mode. It never
// returns an error: an empty registry or total exhaustion resolves to the
// static template with ProviderUsed set to reflection.FallbackProvider.
func (e *Engine) Resolve(ctx context.Context, system, user string, mode reflection.Mode) Result {
	res := Result{Mode: mode}

	for _, en := range e.entries {
		// A cancelled inbound request would make every remaining attempt
		// fail instantly; stop burning the chain and serve the template.
		if ctx.Err() != nil {
			break
		}

		att, reflected, summary := e.attempt(ctx, en, system, user, mode)
		res.Attempts = append(res.Attempts, att)

		if att.Outcome == OutcomeSuccess {
			res.Reflection = reflected
			res.Summary = summary
			res.ProviderUsed = att.Provider
			return res
		}
	}

	// Exhausted (or nothing configured): static template, still a success
	// from the caller's perspective.
	res.Degraded = true
	res.ProviderUsed = reflection.FallbackProvider
	if mode == reflection.ModeStructured {
		res.Reflection = reflection.FallbackStructured()
	} else {
		res.Summary = reflection.FallbackSummary
	}
	if e.metrics != nil {
		e.metrics.FallbackTotal.WithLabelValues(string(mode)).Inc()
	}
	e.logger.Warn("all providers exhausted, serving fallback template",
		slog.String("mode", string(mode)),
		slog.Int("attempts", len(res.Attempts)),
	)
	return res
}

// attempt runs one provider call under its deadline and validates the output
// for the mode. Failures are classified, recorded, and absorbed.
func (e *Engine) attempt(ctx context.Context, en entry, system, user string, mode reflection.Mode) (Attempt, *reflection.Structured, string) {
	att := Attempt{Provider: en.adapter.ID()}

	cctx, cancel := context.WithTimeout(ctx, en.timeout)
	defer cancel()

	start := time.Now()
	raw, err := en.adapter.Generate(cctx, system, user)
	att.LatencyMs = time.Since(start).Milliseconds()

	var reflected *reflection.Structured
	var summary string

	switch {
	case err != nil:
		att.Outcome = classify(err)
		att.ErrorDetail = err.Error()
	case mode == reflection.ModeStructured:
		reflected, err = reflection.Repair(raw)
		if err != nil {
			att.Outcome = OutcomeParseError
			att.ErrorDetail = err.Error()
		} else {
			att.Outcome = OutcomeSuccess
		}
	default:
		summary, err = reflection.ValidateSummary(raw)
		if err != nil {
			att.Outcome = OutcomeParseError
			att.ErrorDetail = err.Error()
		} else {
			att.Outcome = OutcomeSuccess
		}
	}

	e.record(att)
	return att, reflected, summary
}

func (e *Engine) record(att Attempt) {
	if e.metrics != nil {
		e.metrics.AttemptsTotal.WithLabelValues(att.Provider, string(att.Outcome)).Inc()
		e.metrics.AttemptLatency.WithLabelValues(att.Provider).Observe(float64(att.LatencyMs))
	}
	if e.health != nil {
		if att.Outcome == OutcomeSuccess {
			e.health.RecordSuccess(att.Provider, float64(att.LatencyMs))
		} else {
			e.health.RecordFailure(att.Provider, att.ErrorDetail)
		}
	}
	if att.Outcome == OutcomeSuccess {
		e.logger.Debug("provider attempt succeeded",
			slog.String("provider", att.Provider),
			slog.Int64("latency_ms", att.LatencyMs),
		)
	} else {
		e.logger.Info("provider attempt failed",
			slog.String("provider", att.Provider),
			slog.String("outcome", string(att.Outcome)),
			slog.Int64("latency_ms", att.LatencyMs),
			slog.String("error", att.ErrorDetail),
		)
	}
}

// classify maps a transport-level error to an attempt outcome. A deadline
// hit is a timeout, everything else (including connect failures and non-2xx
// statuses) counts as an HTTP error.
func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeHTTPError
}
