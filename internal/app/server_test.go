package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clarityworks/reflectd/internal/orchestrator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ListenAddr:          ":0",
		LogLevel:            "error",
		DBDSN:               "file:" + filepath.Join(t.TempDir(), "test.sqlite"),
		GeminiModels:        []string{"gemini-2.5-flash"},
		OpenAIModel:         "gpt-4o-mini",
		AnthropicModel:      "claude-3-5-haiku-latest",
		ProviderTimeoutSecs: 30,
		SummaryDailyLimit:   1,
		RateLimitRPS:        60,
		RateLimitBurst:      120,
	}
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer func() { _ = srv.Close() }()

	if srv.Router() == nil {
		t.Fatal("expected non-nil Router()")
	}
}

func TestServerClose(t *testing.T) {
	srv, err := NewServer(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestServerEndToEndWithoutProviders(t *testing.T) {
	// No credentials configured: the chain is empty and every reflect
	// request gets the static template.
	srv, err := NewServer(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer func() { _ = srv.Close() }()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/v1/reflect", "application/json",
		strings.NewReader(`{"text":"today went badly","mode":"reflection9"}`))
	if err != nil {
		t.Fatalf("reflect failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reflect = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Reflection map[string]string `json:"reflection"`
		Provider   string            `json:"provider"`
		Degraded   bool              `json:"degraded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Degraded || out.Provider != "fallback-template" {
		t.Errorf("expected degraded template response, got %+v", out)
	}
	if len(out.Reflection) != 9 {
		t.Errorf("expected 9 reflection sections, got %d", len(out.Reflection))
	}
}

func TestRegisterProvidersFixedOrder(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.GeminiAPIKey = "gk"
	cfg.GeminiModels = []string{"gemini-2.5-flash", "gemini-1.5-flash"}
	cfg.OpenAIAPIKey = "ok"
	cfg.AnthropicAPIKey = "ak"
	cfg.OllamaEndpoint = "http://localhost:11434"

	eng := orchestrator.NewEngine()
	registerProviders(eng, cfg, 30*time.Second, discardLogger())

	got := eng.Providers()
	want := []string{"gemini-gemini-2.5-flash", "gemini-gemini-1.5-flash", "openai", "anthropic", "ollama"}
	if len(got) != len(want) {
		t.Fatalf("providers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("providers[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegisterProvidersSkipsMissingCredentials(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.OpenAIAPIKey = "ok"

	eng := orchestrator.NewEngine()
	registerProviders(eng, cfg, 30*time.Second, discardLogger())

	got := eng.Providers()
	if len(got) != 1 || got[0] != "openai" {
		t.Errorf("providers = %v, want [openai]", got)
	}
}

func TestServerReload(t *testing.T) {
	srv, err := NewServer(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	defer func() { _ = srv.Close() }()

	newCfg := newTestConfig(t)
	newCfg.LogLevel = "debug"
	srv.Reload(newCfg)

	if srv.cfg.LogLevel != "debug" {
		t.Errorf("after Reload LogLevel = %q, want %q", srv.cfg.LogLevel, "debug")
	}
}
