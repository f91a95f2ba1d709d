package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate_sends_system_role_message(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" || payload.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want [system, user]", payload.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a summary"}}]}`))
	}))
	defer ts.Close()

	a := New("openai", "gpt-4o-mini", "test-key", WithBaseURL(ts.URL))
	got, err := a.Generate(context.Background(), "sys", "user text")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "a summary" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestGenerate_empty_choices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	a := New("openai", "gpt-4o-mini", "k", WithBaseURL(ts.URL))
	if _, err := a.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
