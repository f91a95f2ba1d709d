// Package events is an in-memory pub/sub bus feeding the admin dashboard's
// live event stream.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType identifies the kind of event.
type EventType string

const (
	// EventRequestServed fires for every completed reflect request.
	EventRequestServed EventType = "request_served"
	// EventRequestDegraded fires when the static template was served.
	EventRequestDegraded EventType = "request_degraded"
	// EventProviderAttempt fires once per provider try within a request.
	EventProviderAttempt EventType = "provider_attempt"
)

// Event is a single serving event. It carries routing metadata only; the
// journal text never appears here.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Mode      string  `json:"mode,omitempty"`
	Provider  string  `json:"provider,omitempty"`
	Outcome   string  `json:"outcome,omitempty"`
	Degraded  bool    `json:"degraded,omitempty"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
	RequestID string  `json:"request_id,omitempty"`

	ErrorDetail string `json:"error_detail,omitempty"`
}

// JSON returns the event as a JSON byte slice.
func (e *Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Subscriber receives events on a channel.
type Subscriber struct {
	C    chan Event
	done chan struct{}
}

// Bus fans events out to all subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Subscribe creates a new subscriber with a buffered channel.
func (b *Bus) Subscribe(bufSize int) *Subscriber {
	if bufSize <= 0 {
		bufSize = 64
	}
	s := &Subscriber{
		C:    make(chan Event, bufSize),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, s)
	b.mu.Unlock()
	close(s.done)
}

// Publish sends an event to all subscribers. Slow subscribers drop events
// rather than blocking the serving path.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subscribers {
		select {
		case s.C <- e:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
