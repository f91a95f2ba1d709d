package store

import (
	"context"
	"time"
)

// Store defines the persistence interface: an audit trail of served requests
// and a ledger of verified checkout sessions.
type Store interface {
	// Request log (for the admin dashboard)
	LogRequest(ctx context.Context, entry RequestLog) error
	ListRequestLogs(ctx context.Context, limit int, offset int) ([]RequestLog, error)

	// Purchases (verified checkout sessions)
	SavePurchase(ctx context.Context, p Purchase) error
	GetPurchase(ctx context.Context, sessionID string) (*Purchase, error)

	// Schema lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// RequestLog records one served reflection/summary request. The raw text is
// never persisted — only routing metadata and per-attempt outcomes.
type RequestLog struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Mode       string    `json:"mode"`
	Provider   string    `json:"provider"`
	Degraded   bool      `json:"degraded"`
	LatencyMs  int64     `json:"latency_ms"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	// Attempts is the JSON-encoded per-provider attempt list.
	Attempts string `json:"attempts,omitempty"`
}

// Purchase is a verified checkout session. Once a session is recorded as
// paid, re-verification is served from here instead of the payment provider.
type Purchase struct {
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	Paid       bool      `json:"paid"`
	VerifiedAt time.Time `json:"verified_at"`
}
