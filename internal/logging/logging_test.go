package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&RedactingHandler{base: base})
}

func TestRedactingHandler_redacts_reflection_text(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("processing",
		slog.String("text", "client disclosed self-harm thoughts"),
		slog.String("mode", "reflection9"),
	)

	out := buf.String()
	if strings.Contains(out, "self-harm") {
		t.Errorf("reflection text leaked into logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker, got: %s", out)
	}
	if !strings.Contains(out, "reflection9") {
		t.Errorf("non-sensitive attribute was dropped: %s", out)
	}
}

func TestRedactingHandler_redacts_credentials(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("startup",
		slog.String("gemini_api_key", "AIza-secret"),
		slog.String("admin_token", "tok-123"),
		slog.String("provider", "gemini"),
	)

	out := buf.String()
	for _, leaked := range []string{"AIza-secret", "tok-123"} {
		if strings.Contains(out, leaked) {
			t.Errorf("credential %q leaked into logs", leaked)
		}
	}
	if !strings.Contains(out, "gemini") {
		t.Errorf("provider attribute missing: %s", out)
	}
}

func TestRedactingHandler_with_attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf).With(slog.String("api_key", "leaky"))

	logger.Info("hello")
	if strings.Contains(buf.String(), "leaky") {
		t.Errorf("WithAttrs bypassed redaction: %s", buf.String())
	}
}

func TestRedactingHandler_enabled_delegates(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := &RedactingHandler{base: base}

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
