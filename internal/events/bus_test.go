package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(8)
	defer bus.Unsubscribe(sub)

	bus.Publish(Event{Type: EventRequestServed, Provider: "openai", Mode: "summary"})

	select {
	case e := <-sub.C:
		if e.Type != EventRequestServed || e.Provider != "openai" {
			t.Errorf("unexpected event: %+v", e)
		}
		if e.Timestamp.IsZero() {
			t.Error("expected timestamp to be stamped on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	defer bus.Unsubscribe(sub)

	// Fill the buffer, then publish more; Publish must not block.
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Type: EventProviderAttempt})
	}
	if got := len(sub.C); got != 1 {
		t.Errorf("expected 1 buffered event, got %d", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}
	bus.Unsubscribe(sub)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestEventJSON(t *testing.T) {
	e := Event{Type: EventRequestDegraded, Provider: "fallback-template", Degraded: true}
	var decoded map[string]any
	if err := json.Unmarshal(e.JSON(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["type"] != "request_degraded" {
		t.Errorf("unexpected type: %v", decoded["type"])
	}
	if decoded["degraded"] != true {
		t.Errorf("expected degraded flag in payload")
	}
}
