// Package idempotency replays responses for repeated Idempotency-Key
// requests. Journaling clients on flaky mobile connections retry the reflect
// call; a replay must not burn another pass through the provider chain.
package idempotency

import (
	"bytes"
	"net/http"
	"sync"
	"time"
)

type cached struct {
	body        []byte
	statusCode  int
	contentType string
	createdAt   time.Time
}

// ReplayCache is a TTL-bounded, size-limited in-memory response cache.
type ReplayCache struct {
	mu         sync.Mutex
	entries    map[string]*cached
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

// New creates a ReplayCache that expires entries after ttl and evicts the
// oldest entry when maxEntries is exceeded.
func New(ttl time.Duration, maxEntries int) *ReplayCache {
	c := &ReplayCache{
		entries:    make(map[string]*cached),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go c.pruneLoop()
	return c
}

// Stop terminates the background prune goroutine.
func (c *ReplayCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *ReplayCache) get(key string) (*cached, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e, true
}

func (c *ReplayCache) set(key string, e *cached) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	e.createdAt = time.Now()
	c.entries[key] = e
}

// evictOldest removes the entry with the earliest createdAt. Caller holds c.mu.
func (c *ReplayCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func (c *ReplayCache) pruneLoop() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, e := range c.entries {
				if now.Sub(e.createdAt) > c.ttl {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Middleware replays cached responses for repeated Idempotency-Key values.
// Replays carry an Idempotency-Replay: true header. Requests without the
// header pass through untouched.
func Middleware(cache *ReplayCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if e, ok := cache.get(key); ok {
				if e.contentType != "" {
					w.Header().Set("Content-Type", e.contentType)
				}
				w.Header().Set("Idempotency-Replay", "true")
				w.WriteHeader(e.statusCode)
				_, _ = w.Write(e.body)
				return
			}

			rec := &recorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			cache.set(key, &cached{
				body:        rec.body.Bytes(),
				statusCode:  rec.statusCode,
				contentType: rec.Header().Get("Content-Type"),
			})
		})
	}
}

// recorder tees the response so it can be cached while still being written
// to the client.
type recorder struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	wrote      bool
}

func (r *recorder) WriteHeader(code int) {
	if !r.wrote {
		r.statusCode = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
