package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clarityworks/reflectd/internal/providers"
)

func TestGenerate_concatenates_system_into_user_part(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("key query param = %q, want %q", key, "test-key")
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"generated text"}]}}]}`))
	}))
	defer ts.Close()

	a := New("gemini-2.5-flash", "gemini-2.5-flash", "test-key", WithBaseURL(ts.URL))
	got, err := a.Generate(context.Background(), "system instruction", "user prompt")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "generated text" {
		t.Errorf("Generate() = %q, want %q", got, "generated text")
	}

	// The system instruction rides inside the single user part.
	raw, _ := json.Marshal(captured)
	if !strings.Contains(string(raw), "system instruction\\n\\nuser prompt") {
		t.Errorf("payload does not concatenate system + user: %s", raw)
	}
}

func TestGenerate_no_candidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer ts.Close()

	a := New("g", "m", "k", WithBaseURL(ts.URL))
	if _, err := a.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerate_http_error_surfaces_status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("quota exceeded"))
	}))
	defer ts.Close()

	a := New("g", "m", "k", WithBaseURL(ts.URL))
	_, err := a.Generate(context.Background(), "s", "u")
	se, ok := err.(*providers.StatusError)
	if !ok {
		t.Fatalf("expected *providers.StatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", se.StatusCode)
	}
}
