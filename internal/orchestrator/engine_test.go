package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/clarityworks/reflectd/internal/providers"
	"github.com/clarityworks/reflectd/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a scriptable provider for chain tests.
type fakeAdapter struct {
	id     string
	output string
	err    error
	block  bool // never resolve until the context is cancelled
	calls  int
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Generate(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.output, f.err
}

func validJSON() string {
	return `{"hypothesis":"h","theme":"t","approaches":"a","theoreticalBase":"tb",` +
		`"reasoning":"r","safeguarding":"s","workerReflection":"wr","selfCare":"sc","claritySnapshot":"cs"}`
}

func TestResolve_empty_registry_serves_template(t *testing.T) {
	e := NewEngine()

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	require.NotNil(t, res.Reflection)
	assert.Equal(t, reflection.FallbackProvider, res.ProviderUsed)
	assert.True(t, res.Degraded)
	assert.Equal(t, *reflection.FallbackStructured(), *res.Reflection)
	assert.Empty(t, res.Attempts)
}

func TestResolve_first_valid_wins(t *testing.T) {
	first := &fakeAdapter{id: "first", output: validJSON()}
	second := &fakeAdapter{id: "second", output: validJSON()}
	e := NewEngine()
	e.Register(first, time.Second)
	e.Register(second, time.Second)

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	assert.Equal(t, "first", res.ProviderUsed)
	assert.False(t, res.Degraded)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "first-valid-wins must not query remaining providers")
}

func TestResolve_malformed_then_valid_preserves_order(t *testing.T) {
	bad := &fakeAdapter{id: "bad", output: "this is not json"}
	good := &fakeAdapter{id: "good", output: "```json\n" + validJSON() + "\n```"}
	e := NewEngine()
	e.Register(bad, time.Second)
	e.Register(good, time.Second)

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	assert.Equal(t, "good", res.ProviderUsed)
	assert.Equal(t, 1, bad.calls, "provider #1 must have been tried first")

	require.Len(t, res.Attempts, 2)
	assert.Equal(t, "bad", res.Attempts[0].Provider)
	assert.Equal(t, OutcomeParseError, res.Attempts[0].Outcome)
	assert.Equal(t, "good", res.Attempts[1].Provider)
	assert.Equal(t, OutcomeSuccess, res.Attempts[1].Outcome)
	assert.Equal(t, "h", res.Reflection.Hypothesis)
}

func TestResolve_http_error_advances(t *testing.T) {
	broken := &fakeAdapter{id: "broken", err: &providers.StatusError{StatusCode: 500, Body: "boom"}}
	ok := &fakeAdapter{id: "ok", output: "a decent summary"}
	e := NewEngine()
	e.Register(broken, time.Second)
	e.Register(ok, time.Second)

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeSummary)
	assert.Equal(t, "ok", res.ProviderUsed)
	assert.Equal(t, "a decent summary", res.Summary)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeHTTPError, res.Attempts[0].Outcome)
	assert.Contains(t, res.Attempts[0].ErrorDetail, "500")
}

func TestResolve_total_exhaustion_equals_template(t *testing.T) {
	e := NewEngine()
	e.Register(&fakeAdapter{id: "p1", err: &providers.StatusError{StatusCode: 500, Body: "down"}}, time.Second)
	e.Register(&fakeAdapter{id: "p2", output: "{{{unparseable"}, time.Second)

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	assert.True(t, res.Degraded)
	assert.Equal(t, reflection.FallbackProvider, res.ProviderUsed)
	assert.Equal(t, *reflection.FallbackStructured(), *res.Reflection)
	assert.Len(t, res.Attempts, 2)
}

func TestResolve_summary_exhaustion_serves_static_text(t *testing.T) {
	e := NewEngine()
	e.Register(&fakeAdapter{id: "p1", output: "   "}, time.Second) // blank fails summary validation

	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeSummary)
	assert.True(t, res.Degraded)
	assert.Equal(t, reflection.FallbackSummary, res.Summary)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, OutcomeParseError, res.Attempts[0].Outcome)
}

func TestResolve_timeout_advances_to_next_provider(t *testing.T) {
	stuck := &fakeAdapter{id: "stuck", block: true}
	quick := &fakeAdapter{id: "quick", output: "made it"}
	e := NewEngine()
	e.Register(stuck, 50*time.Millisecond)
	e.Register(quick, time.Second)

	start := time.Now()
	res := e.Resolve(context.Background(), "sys", "user", reflection.ModeSummary)
	elapsed := time.Since(start)

	assert.Equal(t, "quick", res.ProviderUsed)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeTimeout, res.Attempts[0].Outcome)
	assert.Less(t, elapsed, time.Second, "stuck provider must not block beyond its own deadline")
}

func TestResolve_idempotent_for_identical_output(t *testing.T) {
	e := NewEngine()
	e.Register(&fakeAdapter{id: "stable", output: validJSON()}, time.Second)

	a := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	b := e.Resolve(context.Background(), "sys", "user", reflection.ModeStructured)
	assert.Equal(t, *a.Reflection, *b.Reflection)
	assert.Equal(t, a.ProviderUsed, b.ProviderUsed)
}

func TestResolve_cancelled_request_still_degrades_cleanly(t *testing.T) {
	p := &fakeAdapter{id: "p", output: validJSON()}
	e := NewEngine()
	e.Register(p, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Resolve(ctx, "sys", "user", reflection.ModeStructured)
	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Reflection)
	assert.Zero(t, p.calls, "no attempts once the request is dead")
}

func TestProviders_preserves_registration_order(t *testing.T) {
	e := NewEngine()
	e.Register(&fakeAdapter{id: "c"}, time.Second)
	e.Register(&fakeAdapter{id: "a"}, time.Second)
	e.Register(&fakeAdapter{id: "b"}, time.Second)
	assert.Equal(t, []string{"c", "a", "b"}, e.Providers())
}
