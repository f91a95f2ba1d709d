package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure-Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given DSN.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Enable WAL mode and set busy timeout.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	// SQLite only supports one writer at a time. Limit connections to avoid
	// contention and keep a small idle pool for read concurrency.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS request_logs (
			id TEXT PRIMARY KEY,
			ts TIMESTAMP NOT NULL,
			mode TEXT NOT NULL,
			provider TEXT NOT NULL,
			degraded BOOLEAN NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			status_code INTEGER NOT NULL DEFAULT 0,
			request_id TEXT NOT NULL DEFAULT '',
			attempts TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_request_logs_ts ON request_logs(ts)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			session_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT 0,
			verified_at TIMESTAMP NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LogRequest(ctx context.Context, entry RequestLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs (id, ts, mode, provider, degraded, latency_ms, status_code, request_id, attempts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Mode, entry.Provider, entry.Degraded,
		entry.LatencyMs, entry.StatusCode, entry.RequestID, entry.Attempts,
	)
	if err != nil {
		return fmt.Errorf("log request: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRequestLogs(ctx context.Context, limit, offset int) ([]RequestLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, mode, provider, degraded, latency_ms, status_code, request_id, attempts
		 FROM request_logs ORDER BY ts DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	defer rows.Close()

	var out []RequestLog
	for rows.Next() {
		var e RequestLog
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Mode, &e.Provider, &e.Degraded,
			&e.LatencyMs, &e.StatusCode, &e.RequestID, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan request log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SavePurchase(ctx context.Context, p Purchase) error {
	if p.VerifiedAt.IsZero() {
		p.VerifiedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO purchases (session_id, status, paid, verified_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET status=excluded.status, paid=excluded.paid, verified_at=excluded.verified_at`,
		p.SessionID, p.Status, p.Paid, p.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("save purchase: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPurchase(ctx context.Context, sessionID string) (*Purchase, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, status, paid, verified_at FROM purchases WHERE session_id = ?`, sessionID)
	var p Purchase
	if err := row.Scan(&p.SessionID, &p.Status, &p.Paid, &p.VerifiedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
