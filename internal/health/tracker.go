// Package health tracks per-provider attempt outcomes so operators can see
// which backends in the fallback chain are actually serving requests. The
// counters are advisory: they never influence routing and may be slightly
// stale under concurrent requests without correctness impact.
package health

import (
	"sync"
	"time"
)

// State summarises a provider's recent behaviour.
type State string

const (
	StateHealthy  State = "healthy"
	StateDegraded State = "degraded"
	StateDown     State = "down"
)

// Stats captures runtime attempt metrics for a single provider.
type Stats struct {
	ProviderID    string    `json:"provider_id"`
	State         State     `json:"state"`
	TotalAttempts int64     `json:"total_attempts"`
	TotalFailures int64     `json:"total_failures"`
	ConsecErrors  int       `json:"consec_errors"`
	AvgLatencyMs  float64   `json:"avg_latency_ms"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorTime time.Time `json:"last_error_time,omitempty"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
}

// TrackerConfig configures the state thresholds.
type TrackerConfig struct {
	// ConsecErrorsForDegraded: consecutive failures before degraded state.
	ConsecErrorsForDegraded int
	// ConsecErrorsForDown: consecutive failures before down state.
	ConsecErrorsForDown int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() TrackerConfig {
	return TrackerConfig{
		ConsecErrorsForDegraded: 2,
		ConsecErrorsForDown:     5,
	}
}

// Tracker tracks attempt outcomes for all providers.
type Tracker struct {
	cfg TrackerConfig

	mu    sync.RWMutex
	stats map[string]*Stats
}

// NewTracker creates a tracker with the given config.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:   cfg,
		stats: make(map[string]*Stats),
	}
}

// RecordSuccess records a validated attempt against a provider.
func (t *Tracker) RecordSuccess(providerID string, latencyMs float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.getOrCreate(providerID)
	s.TotalAttempts++
	s.ConsecErrors = 0
	s.LastSuccessAt = time.Now()
	s.State = StateHealthy

	// Running average (simple weighted).
	if s.TotalAttempts == 1 {
		s.AvgLatencyMs = latencyMs
	} else {
		s.AvgLatencyMs = s.AvgLatencyMs*0.9 + latencyMs*0.1
	}
}

// RecordFailure records a failed attempt (timeout, HTTP error, or invalid
// output) against a provider.
func (t *Tracker) RecordFailure(providerID string, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.getOrCreate(providerID)
	s.TotalAttempts++
	s.TotalFailures++
	s.ConsecErrors++
	s.LastError = detail
	s.LastErrorTime = time.Now()

	switch {
	case s.ConsecErrors >= t.cfg.ConsecErrorsForDown:
		s.State = StateDown
	case s.ConsecErrors >= t.cfg.ConsecErrorsForDegraded:
		s.State = StateDegraded
	}
}

// Snapshot returns a copy of the stats for every tracked provider.
func (t *Tracker) Snapshot() []Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Stats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	return out
}

// Get returns a copy of one provider's stats, or false if never seen.
func (t *Tracker) Get(providerID string) (Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.stats[providerID]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

// getOrCreate must be called with t.mu held.
func (t *Tracker) getOrCreate(providerID string) *Stats {
	s, ok := t.stats[providerID]
	if !ok {
		s = &Stats{ProviderID: providerID, State: StateHealthy}
		t.stats[providerID] = s
	}
	return s
}
